package docstore

type WriteKind int

const (
	WriteCreate WriteKind = iota
	WriteUpdate
	WriteDelete
)

func (k WriteKind) String() string {
	switch k {
	case WriteCreate:
		return "create"
	case WriteUpdate:
		return "update"
	case WriteDelete:
		return "delete"
	default:
		return "unknown"
	}
}

type Write struct {
	Kind       WriteKind
	Collection string
	ID         string
	Data       map[string]any
}

// Batch accumulates writes that a Store commits all-or-nothing. Creating a
// document that exists, or updating one that does not, fails the whole batch.
type Batch struct {
	writes []Write
}

func NewBatch() *Batch {
	return &Batch{}
}

func (b *Batch) Create(collection, id string, data map[string]any) *Batch {
	b.writes = append(b.writes, Write{Kind: WriteCreate, Collection: collection, ID: id, Data: data})
	return b
}

func (b *Batch) Update(collection, id string, fields map[string]any) *Batch {
	b.writes = append(b.writes, Write{Kind: WriteUpdate, Collection: collection, ID: id, Data: fields})
	return b
}

func (b *Batch) Delete(collection, id string) *Batch {
	b.writes = append(b.writes, Write{Kind: WriteDelete, Collection: collection, ID: id})
	return b
}

func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.writes)
}

func (b *Batch) Writes() []Write {
	if b == nil {
		return nil
	}
	return b.writes
}

// Split cuts the batch into consecutive batches of at most size writes,
// preserving order. Each piece commits independently.
func (b *Batch) Split(size int) []*Batch {
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}

	var batches []*Batch
	for start := 0; start < b.Len(); start += size {
		end := start + size
		if end > len(b.writes) {
			end = len(b.writes)
		}
		chunk := make([]Write, end-start)
		copy(chunk, b.writes[start:end])
		batches = append(batches, &Batch{writes: chunk})
	}

	return batches
}
