package decode

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqrenamer/internal/encode"
	"seqrenamer/internal/fasta"
	"seqrenamer/internal/idgen"
	"seqrenamer/internal/mapping"
	"seqrenamer/internal/record"
	"seqrenamer/internal/xsv"
)

func table(t *testing.T, pairs ...string) *mapping.Table {
	t.Helper()
	tb := mapping.NewTable()
	for i := 0; i+1 < len(pairs); i += 2 {
		require.NoError(t, tb.Append(mapping.Entry{OldID: pairs[i], NewID: pairs[i+1]}))
	}
	return tb
}

func row(f ...string) *xsv.Row { return &xsv.Row{Fields: f} }

func decodeAll(t *testing.T, lookup mapping.Lookup, opts Options, recs ...record.Record) (*record.Buffer, Stats, error) {
	t.Helper()
	out := &record.Buffer{}
	st, err := New(lookup, opts, nil).Decode(context.Background(), record.NewSliceReader(recs...), out)
	return out, st, err
}

func TestScenarioReduplication(t *testing.T) {
	tb := table(t, "seqA", "SR0", "seqB", "SR0")
	out, st, err := decodeAll(t, tb, Options{}, row("SR0", "0.9", "hit"))
	require.NoError(t, err)

	require.Len(t, out.Records, 2)
	assert.Equal(t, []string{"seqA", "0.9", "hit"}, out.Records[0].(*xsv.Row).Fields)
	assert.Equal(t, []string{"seqB", "0.9", "hit"}, out.Records[1].(*xsv.Row).Fields)
	assert.Equal(t, Stats{Read: 1, Written: 2}, st)
}

func TestReduplicationArithmetic(t *testing.T) {
	tb := table(t, "a", "X", "b", "X", "c", "X", "d", "Y")
	// X three times (k=3), Y twice (k=1)
	in := []record.Record{row("X", "1"), row("Y", "2"), row("X", "3"), row("X", "4"), row("Y", "5")}
	out, _, err := decodeAll(t, tb, Options{}, in...)
	require.NoError(t, err)

	assert.Len(t, out.Records, 3*3+1*2)
	// grouped per occurrence, then per entry in append order
	var got []string
	for _, r := range out.Records {
		f := r.(*xsv.Row).Fields
		got = append(got, f[0]+":"+f[1])
	}
	assert.Equal(t, []string{
		"a:1", "b:1", "c:1",
		"d:2",
		"a:3", "b:3", "c:3",
		"a:4", "b:4", "c:4",
		"d:5",
	}, got)
}

func TestClonesAreIndependent(t *testing.T) {
	tb := table(t, "a", "X", "b", "X")
	src := row("X", "v")
	out, _, err := decodeAll(t, tb, Options{}, src)
	require.NoError(t, err)
	assert.Equal(t, "X", src.Fields[0])
	assert.NotSame(t, out.Records[0], out.Records[1])
}

func TestUnresolvedPolicies(t *testing.T) {
	tb := table(t, "a", "X")
	in := []record.Record{row("X"), row("NOPE", "1"), row("X")}

	_, _, err := decodeAll(t, tb, Options{}, in...)
	var ue *UnresolvedIDError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "NOPE", ue.ID)

	out, st, err := decodeAll(t, tb, Options{Unresolved: Skip}, in...)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a"}, out.IDs())
	assert.Equal(t, 1, st.Unresolved)

	out, _, err = decodeAll(t, tb, Options{Unresolved: Keep}, in...)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "NOPE", "a"}, out.IDs())
}

func TestAbortKeepsEarlierOutput(t *testing.T) {
	tb := table(t, "a", "X")
	out, _, err := decodeAll(t, tb, Options{}, row("X"), row("Z"), row("X"))
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, out.IDs())
}

func TestHeaderBypassesLookup(t *testing.T) {
	tb := table(t, "a", "X")
	hdr := &xsv.Row{Fields: []string{"query", "score"}, Header: true}
	out, st, err := decodeAll(t, tb, Options{}, hdr, row("X", "1"))
	require.NoError(t, err)
	assert.Same(t, hdr, out.Records[0])
	assert.Equal(t, 1, st.Read)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Abort, p)
	p, err = ParsePolicy("keep")
	require.NoError(t, err)
	assert.Equal(t, Keep, p)
	_, err = ParsePolicy("ignore")
	assert.Error(t, err)
}

func TestRestoreDescription(t *testing.T) {
	tb := mapping.NewTable()
	require.NoError(t, tb.Append(mapping.Entry{OldID: "a", NewID: "X", Description: "kinase"}))
	out, _, err := decodeAll(t, tb, Options{RestoreDescription: true}, &fasta.Record{Name: "X", Seq: []byte("A")})
	require.NoError(t, err)
	r := out.Records[0].(*fasta.Record)
	assert.Equal(t, "a", r.Name)
	assert.Equal(t, "kinase", r.Desc)
}

func TestRoundTrip(t *testing.T) {
	in := ">p1 first\nACGT\n>p2\nACGT\n>p3 third\nTTTT\n"
	g, err := idgen.New("SR", idgen.WithWidth(5))
	require.NoError(t, err)

	enc := encode.New(encode.Options{}, g, nil, nil)
	encoded := &record.Buffer{}
	_, err = enc.Encode(context.Background(), fasta.NewReader(strings.NewReader(in), "in.fa", fasta.Options{}), encoded)
	require.NoError(t, err)
	assert.Equal(t, []string{"SR00000", "SR00001", "SR00002"}, encoded.IDs())

	decoded := &record.Buffer{}
	_, err = New(enc.Table(), Options{}, nil).Decode(context.Background(), record.NewSliceReader(encoded.Records...), decoded)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, decoded.IDs())
	assert.Equal(t, "third", decoded.Records[2].Description())
}

func TestRoundTripWithDedup(t *testing.T) {
	in := ">p1\nACGT\n>p2\nACGT\n>p3\nTTTT\n"
	g, err := idgen.New("SR")
	require.NoError(t, err)

	enc := encode.New(encode.Options{Deduplicate: true}, g, nil, nil)
	encoded := &record.Buffer{}
	_, err = enc.Encode(context.Background(), fasta.NewReader(strings.NewReader(in), "in.fa", fasta.Options{}), encoded)
	require.NoError(t, err)
	assert.Equal(t, []string{"SR0", "SR1"}, encoded.IDs())

	decoded := &record.Buffer{}
	_, err = New(enc.Table(), Options{}, nil).Decode(context.Background(), record.NewSliceReader(encoded.Records...), decoded)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2", "p3"}, decoded.IDs())
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(table(t), Options{}, nil).Decode(ctx, record.NewSliceReader(row("X")), &record.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

type failingLookup struct{}

func (failingLookup) Lookup(string) ([]mapping.Entry, error) { return nil, errors.New("disk gone") }

func TestLookupError(t *testing.T) {
	_, _, err := decodeAll(t, failingLookup{}, Options{}, row("X"))
	assert.EqualError(t, err, "disk gone")
}
