// internal/site/site.go

// Package site serves the static marketing site from a document root.
//
// GET / returns index.html. Other paths map to files under the root.
// Directories are never listed and dotfiles are never served. When the
// client accepts it, a pre-compressed sibling (file.br, then file.gz) is
// served with the matching Content-Encoding.
package site

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// IndexFile is served for "/".
const IndexFile = "index.html"

// Options configures the site handler.
type Options struct {
	// CacheControl sets the Cache-Control header on served files.
	CacheControl string

	// DisablePrecompressed disables checking for .br and .gz variants.
	DisablePrecompressed bool

	// NotFound answers missing files, directories and dotfiles.
	// Defaults to http.NotFound.
	NotFound http.Handler
}

// Handler returns an http.Handler serving files from rootDir.
//
//	r.Handle("/*", site.Handler("public", site.Options{}))
func Handler(rootDir string, opts Options) http.Handler {
	root := http.Dir(rootDir)
	notFound := opts.NotFound
	if notFound == nil {
		notFound = http.HandlerFunc(http.NotFound)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		name, ok := resolve(r.URL.Path)
		if !ok {
			notFound.ServeHTTP(w, r)
			return
		}

		if !opts.DisablePrecompressed && servePrecompressed(w, r, root, name, opts.CacheControl) {
			return
		}

		f, err := root.Open(name)
		if err != nil {
			notFound.ServeHTTP(w, r)
			return
		}
		defer f.Close()

		fi, err := f.Stat()
		if err != nil || fi.IsDir() {
			notFound.ServeHTTP(w, r)
			return
		}

		if opts.CacheControl != "" {
			w.Header().Set("Cache-Control", opts.CacheControl)
		}
		http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
	})
}

// resolve maps a URL path to a slash-separated name under the root.
// It reports false for dotfiles or anything inside a dot directory.
func resolve(urlPath string) (string, bool) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		return IndexFile, true
	}
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return "", false
		}
	}
	return name, true
}

func servePrecompressed(w http.ResponseWriter, r *http.Request, root http.FileSystem, name, cacheControl string) bool {
	candidates := []struct {
		ext      string
		encoding string
	}{
		{".br", "br"},
		{".gz", "gzip"},
	}

	for _, cand := range candidates {
		if !acceptsEncoding(r, cand.encoding) {
			continue
		}

		f, err := root.Open(name + cand.ext)
		if err != nil {
			continue
		}

		fi, err := f.Stat()
		if err != nil || fi.IsDir() {
			_ = f.Close()
			continue
		}

		w.Header().Set("Content-Encoding", cand.encoding)
		w.Header().Add("Vary", "Accept-Encoding")
		w.Header().Set("Content-Type", mimeTypeByOriginal(name))
		if cacheControl != "" {
			w.Header().Set("Cache-Control", cacheControl)
		}

		http.ServeContent(w, r, name, fi.ModTime(), f)
		_ = f.Close()
		return true
	}
	return false
}

// acceptsEncoding checks if the client accepts the given encoding.
func acceptsEncoding(r *http.Request, encoding string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc, params, _ := strings.Cut(part, ";")
		if !strings.EqualFold(strings.TrimSpace(enc), encoding) {
			continue
		}
		// q=0 means "not acceptable"
		q := strings.ReplaceAll(strings.TrimSpace(params), " ", "")
		return q != "q=0" && q != "q=0.0" && q != "q=0.00" && q != "q=0.000"
	}
	return false
}

// mimeTypeByOriginal returns the MIME type for the uncompressed name.
func mimeTypeByOriginal(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	switch ext {
	case ".js", ".mjs":
		return "text/javascript; charset=utf-8"
	case ".json":
		return "application/json"
	case ".svg":
		return "image/svg+xml"
	case ".wasm":
		return "application/wasm"
	default:
		return "application/octet-stream"
	}
}

// CheckRoot reports whether rootDir is a directory holding IndexFile.
func CheckRoot(rootDir string) error {
	f, err := http.Dir(rootDir).Open(IndexFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.New("site: " + filepath.Join(rootDir, IndexFile) + " not found")
		}
		return err
	}
	return f.Close()
}
