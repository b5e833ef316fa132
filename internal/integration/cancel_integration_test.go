package integration

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"seqrenamer/internal/app"
	"seqrenamer/internal/appshell"
)

func TestCanceledRunExits130(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&b, ">s%d\nACGT\n", i)
	}
	in := write(t, dir, "big.fa", b.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code := app.Run(ctx, []string{"encode", "-m", filepath.Join(dir, "map.tsv"), in}, io.Discard, io.Discard)
	assert.Equal(t, appshell.ExitCanceled, code)
}
