package transcriber

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"dictator/log"
)

// ModelBaseURL hosts the ggml whisper weights.
var ModelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// Models lists the accepted model names with their approximate size in MB.
var Models = map[string]int{
	"tiny":     75,
	"tiny.en":  75,
	"base":     142,
	"base.en":  142,
	"small":    466,
	"small.en": 466,
	"medium":   1500,
	"large-v3": 2900,
}

func ModelFile(name string) string {
	return "ggml-" + name + ".bin"
}

// ModelPath is where a model lives inside the cache directory.
func ModelPath(dir, name string) string {
	return filepath.Join(dir, ModelFile(name))
}

// EnsureModel returns the cached model path, downloading it first when
// missing. Partial downloads never appear under the final name.
func EnsureModel(ctx context.Context, client *http.Client, dir, name string) (string, error) {
	if _, ok := Models[name]; !ok {
		return "", fmt.Errorf("unknown model %q", name)
	}
	path := ModelPath(dir, name)
	if fi, err := os.Stat(path); err == nil && fi.Size() > 0 {
		return path, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating model cache: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}

	url := ModelBaseURL + "/" + ModelFile(name)
	log.Infof("Downloading model %s (~%d MB) to %s", name, Models[name], dir)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: HTTP %d", name, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, ModelFile(name)+".*.part")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	pw := &progressWriter{total: resp.ContentLength, name: name, every: 5 * time.Second}
	n, err := io.Copy(tmp, io.TeeReader(resp.Body, pw))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", name, err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return "", fmt.Errorf("downloading %s: got %d of %d bytes", name, n, resp.ContentLength)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	log.Infof("Model %s ready (%.1f MB)", name, float64(n)/1024/1024)
	return path, nil
}

type progressWriter struct {
	name  string
	total int64
	done  int64
	every time.Duration
	last  time.Time
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.done += int64(len(b))
	if time.Since(p.last) >= p.every && p.total > 0 {
		p.last = time.Now()
		log.Infof("  %s: %d%%", p.name, p.done*100/p.total)
	}
	return len(b), nil
}
