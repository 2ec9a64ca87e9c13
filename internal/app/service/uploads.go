package service

import (
	"path"
	"strings"

	"chall_zone/internal/domain/model"

	"github.com/gosimple/slug"
)

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Bytes    []byte
}

// sanitizeFilename keeps a client filename readable but strips anything that
// could be interpreted as a path or markup.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := path.Ext(name)
	base := slug.Make(strings.TrimSuffix(name, ext))
	if base == "" {
		base = "file"
	}
	if ext = slug.Make(ext); ext != "" {
		return base + "." + ext
	}
	return base
}

func (u *Upload) script() *model.ScriptUpload {
	if u == nil {
		return nil
	}
	return &model.ScriptUpload{Filename: sanitizeFilename(u.Filename), Bytes: u.Bytes}
}
