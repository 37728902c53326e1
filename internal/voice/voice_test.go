package voice

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tr, ok := parseLine("  merhaba dünya ")
	assert.True(t, ok)
	assert.Equal(t, Transcript{Text: "merhaba dünya", Final: true}, tr)

	tr, ok = parseLine("partial: merh")
	assert.True(t, ok)
	assert.False(t, tr.Final)

	_, ok = parseLine("partial:")
	assert.False(t, ok)
	_, ok = parseLine("")
	assert.False(t, ok)
}

func TestUnconfiguredIsUnsupported(t *testing.T) {
	r := NewCommandRecognizer("", "tr-TR")
	assert.False(t, r.Available())
	_, err := r.Start(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)

	r = NewCommandRecognizer("/definitely/not/here", "tr-TR")
	_, err = r.Start(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestCommandRecognizerEmitsFinalOnly(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}
	script := filepath.Join(t.TempDir(), "rec.sh")
	body := "#!/bin/sh\necho \"partial: bug\"\necho \"bugün spor\"\necho \"$THRONEMIND_LOCALE\"\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	r := NewCommandRecognizer(script, "tr-TR")
	require.True(t, r.Available())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch, err := r.Start(ctx)
	require.NoError(t, err)

	var got []string
	for tr := range ch {
		got = append(got, tr.Text)
	}
	assert.Equal(t, []string{"bugün spor", "tr-TR"}, got)
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "hello", Join("", "hello"))
	assert.Equal(t, "a b", Join("a ", "b"))
}
