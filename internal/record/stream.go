package record

import "io"

// SliceReader reads records from a slice.
type SliceReader struct {
	recs []Record
	i    int
}

func NewSliceReader(recs ...Record) *SliceReader { return &SliceReader{recs: recs} }

func (s *SliceReader) Read() (Record, error) {
	if s.i >= len(s.recs) {
		return nil, io.EOF
	}
	r := s.recs[s.i]
	s.i++
	return r, nil
}

// Buffer is a Writer that keeps everything written to it.
type Buffer struct {
	Records []Record
}

func (b *Buffer) Write(r Record) error {
	b.Records = append(b.Records, r)
	return nil
}

// IDs returns the id field of every buffered record, in order.
func (b *Buffer) IDs() []string {
	out := make([]string, len(b.Records))
	for i, r := range b.Records {
		out[i] = r.ID()
	}
	return out
}

// Opener produces a Reader on demand.
type Opener func() (Reader, io.Closer, error)

// Chain reads the readers produced by openers one after another, opening
// each lazily and closing it at its end.
type Chain struct {
	openers []Opener
	cur     Reader
	closer  io.Closer
}

func NewChain(openers ...Opener) *Chain { return &Chain{openers: openers} }

func (c *Chain) Read() (Record, error) {
	for {
		if c.cur == nil {
			if len(c.openers) == 0 {
				return nil, io.EOF
			}
			r, cl, err := c.openers[0]()
			if err != nil {
				return nil, err
			}
			c.openers = c.openers[1:]
			c.cur, c.closer = r, cl
		}
		rec, err := c.cur.Read()
		if err == io.EOF {
			if cerr := c.closeCurrent(); cerr != nil {
				return nil, cerr
			}
			continue
		}
		return rec, err
	}
}

// Close releases the reader currently open, if any.
func (c *Chain) Close() error { return c.closeCurrent() }

func (c *Chain) closeCurrent() error {
	var err error
	if c.closer != nil {
		err = c.closer.Close()
	}
	c.cur, c.closer = nil, nil
	return err
}
