package fasta

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqrenamer/internal/record"
)

const plain = `>seq1 first sequence
ACGT
acgt
>seq2
NNnn
`

func readAll(t *testing.T, r record.Reader) []record.Record {
	t.Helper()
	var out []record.Record
	require.NoError(t, record.ForEach(r, func(rec record.Record) error {
		out = append(out, rec)
		return nil
	}))
	return out
}

func TestReadRecords(t *testing.T) {
	recs := readAll(t, NewReader(strings.NewReader(plain), "x.fa", Options{}))
	require.Len(t, recs, 2)

	r1 := recs[0].(*Record)
	assert.Equal(t, "seq1", r1.ID())
	assert.Equal(t, "first sequence", r1.Description())
	assert.Equal(t, "ACGTacgt", string(r1.Payload()))
	assert.Equal(t, record.Pos{Source: "x.fa", Line: 1}, r1.Pos())

	r2 := recs[1].(*Record)
	assert.Equal(t, "seq2", r2.ID())
	assert.Equal(t, "", r2.Description())
	assert.Equal(t, "NNnn", string(r2.Payload()))
	assert.Equal(t, 4, r2.Pos().Line)
}

func TestDescriptionField(t *testing.T) {
	recs := readAll(t, NewReader(strings.NewReader(plain), "x.fa", Options{Field: FieldDescription}))
	r1 := recs[0].(*Record)
	assert.Equal(t, "first sequence", r1.ID())
	assert.Equal(t, "seq1", r1.Description())

	r1.SetID("SR0")
	assert.Equal(t, "SR0", r1.Desc)
	assert.Equal(t, "seq1", r1.Name)
}

func TestLeadingComments(t *testing.T) {
	in := "# made by hand\n;legacy\n>a\nAC\n;inside\nGT\n"
	recs := readAll(t, NewReader(strings.NewReader(in), "", Options{Comment: "#"}))
	require.Len(t, recs, 3)
	assert.True(t, record.IsVerbatim(recs[0]))
	assert.True(t, record.IsVerbatim(recs[1]))
	assert.Equal(t, "ACGT", string(recs[2].(*Record).Seq))
}

func TestCommentsInsideRecords(t *testing.T) {
	in := ">a\nACGT\n# note\n>b\nGG\n# tail\n"
	recs := readAll(t, NewReader(strings.NewReader(in), "x.fa", Options{Comment: "#"}))
	require.Len(t, recs, 4)

	assert.Equal(t, "ACGT", string(recs[0].(*Record).Seq))
	c := recs[1].(*Comment)
	assert.Equal(t, "# note", c.Line)
	assert.Equal(t, 3, c.At.Line)
	assert.Equal(t, "GG", string(recs[2].(*Record).Seq))
	assert.Equal(t, "# tail", recs[3].(*Comment).Line)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, r := range recs {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Flush())
	assert.Equal(t, in, buf.String())
}

func TestMalformed(t *testing.T) {
	_, err := NewReader(strings.NewReader("ACGT\n>a\nAC\n"), "bad.fa", Options{}).Read()
	var me *record.MalformedError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, 1, me.Pos.Line)

	r := NewReader(strings.NewReader(">a\nAC\n> \nGT\n"), "bad.fa", Options{})
	_, err = r.Read()
	require.True(t, errors.As(err, &me))
	assert.Equal(t, 3, me.Pos.Line)
}

func TestEmpty(t *testing.T) {
	_, err := NewReader(strings.NewReader(""), "", Options{}).Read()
	assert.Equal(t, io.EOF, err)
}

func TestCloneIsDeep(t *testing.T) {
	r := &Record{Name: "a", Seq: []byte("AC")}
	c := r.Clone().(*Record)
	c.Seq[0] = 'T'
	c.SetID("b")
	assert.Equal(t, "AC", string(r.Seq))
	assert.Equal(t, "a", r.Name)
}

func TestWriterWraps(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	seq := strings.Repeat("A", 61)
	require.NoError(t, w.Write(&Comment{Line: "# hi"}))
	require.NoError(t, w.Write(&Record{Name: "x", Desc: "some desc", Seq: []byte(seq)}))
	require.NoError(t, w.Write(&Record{Name: "empty"}))
	require.NoError(t, w.Flush())

	want := "# hi\n>x some desc\n" + strings.Repeat("A", 60) + "\nA\n>empty\n"
	assert.Equal(t, want, buf.String())
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, rec := range readAll(t, NewReader(strings.NewReader(plain), "", Options{})) {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Flush())
	assert.Equal(t, ">seq1 first sequence\nACGTacgt\n>seq2\nNNnn\n", buf.String())
}
