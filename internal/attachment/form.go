package attachment

import (
	"fmt"
	"io"
	"mime/multipart"
	"regexp"
	"sort"
	"strconv"
)

var fieldKey = regexp.MustCompile(`^attachments\[(\d+)\]\.(id|altText|file)$`)

// FromMultipart collects attachments[i].id, attachments[i].altText and
// attachments[i].file form fields in index order. Files over maxSize keep
// their size but are not read, so validation can still reject them.
func FromMultipart(form *multipart.Form, maxSize int64) ([]FieldSet, error) {
	if form == nil {
		return nil, nil
	}

	byIndex := make(map[int]*FieldSet)
	entry := func(key string, file bool) (*FieldSet, string, bool) {
		m := fieldKey.FindStringSubmatch(key)
		if m == nil || (m[2] == "file") != file {
			return nil, "", false
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, "", false
		}
		fs, ok := byIndex[idx]
		if !ok {
			fs = &FieldSet{}
			byIndex[idx] = fs
		}
		return fs, m[2], true
	}

	for key, values := range form.Value {
		fs, attr, ok := entry(key, false)
		if !ok || len(values) == 0 {
			continue
		}
		switch attr {
		case "id":
			fs.ID = values[0]
		case "altText":
			fs.AltText = values[0]
		}
	}

	for key, headers := range form.File {
		if len(headers) == 0 || headers[0].Filename == "" {
			continue
		}
		fs, _, ok := entry(key, true)
		if !ok {
			continue
		}
		header := headers[0]
		f, err := readFile(header, maxSize)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		fs.File = f
	}

	indices := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	submitted := make([]FieldSet, 0, len(indices))
	for _, idx := range indices {
		submitted = append(submitted, *byIndex[idx])
	}
	return submitted, nil
}

func readFile(header *multipart.FileHeader, maxSize int64) (*File, error) {
	f := &File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	if header.Size > maxSize {
		return f, nil
	}

	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return nil, err
	}
	f.Content = content
	f.Size = int64(len(content))
	return f, nil
}
