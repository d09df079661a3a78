package unity

import (
	"errors"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

const unityTagPrefix = "tag:unity3d.com,2011:"

var errEmptyDocument = errors.New("empty document")

type YAMLDoc struct {
	Tag      string // tag:unity3d.com,2011:1
	refID    string // unity fileID
	Stripped bool
	Body     []byte
}

func (d *YAMLDoc) Decode(dst interface{}) error {
	return yaml.Unmarshal(d.Body, dst)
}

// ClassID returns the Unity class ID of the document or -1.
func (d *YAMLDoc) ClassID() int {
	if !strings.HasPrefix(d.Tag, unityTagPrefix) {
		return -1
	}
	id, err := strconv.Atoi(d.Tag[len(unityTagPrefix):])
	if err != nil {
		return -1
	}
	return id
}

func (d *YAMLDoc) FileID() int64 {
	id, _ := strconv.ParseInt(d.refID, 10, 64)
	return id
}

// decodeElement decodes a document of the form "TypeName: {...}".
func decodeElement[T any](doc *YAMLDoc) (*T, error) {
	var m map[string]*T
	if err := doc.Decode(&m); err != nil {
		return nil, err
	}
	for _, v := range m {
		if v != nil {
			return v, nil
		}
	}
	return nil, errEmptyDocument
}

type yamlSplitter struct {
	data []byte
	pos  int
	tags map[string]string
}

func ParseYamlDocuments(data []byte) []*YAMLDoc {
	s := yamlSplitter{data: data, tags: map[string]string{}}
	docStart := 0
	var doc *YAMLDoc
	var docs []*YAMLDoc

	for s.pos < len(data)-3 {
		if data[s.pos] == '%' && data[s.pos+1] == 'T' && data[s.pos+2] == 'A' && data[s.pos+3] == 'G' {
			s.pos += 4
			name := strings.Trim(s.readToken(), "!")
			value := s.readToken()
			s.tags[name] = value
		} else if data[s.pos] == '-' && data[s.pos+1] == '-' && data[s.pos+2] == '-' {
			docEnd := s.pos
			s.pos += 3
			if doc != nil {
				doc.Body = data[docStart:docEnd]
				docs = append(docs, doc)
			}
			doc = &YAMLDoc{
				Tag:   s.getTag(),
				refID: strings.TrimPrefix(s.readToken(), "&"),
			}
			doc.Stripped = s.readToken() == "stripped"
			s.nextLine()
			docStart = s.pos
			continue
		}
		s.nextLine()
	}
	if doc != nil {
		doc.Body = data[docStart:]
		docs = append(docs, doc)
	}
	return docs
}

func (s *yamlSplitter) getTag() string {
	tag := s.readToken()
	if len(tag) > 0 && tag[0] == '!' {
		t := strings.SplitN(tag[1:], "!", 2)
		if v, ok := s.tags[t[0]]; ok && len(t) == 2 {
			tag = v + t[1]
		}
	}
	return tag
}

func (s *yamlSplitter) readToken() string {
	for s.pos < len(s.data) && s.data[s.pos] == ' ' {
		s.pos++
	}
	st := s.pos
	for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != ' ' && s.data[s.pos] != '\r' {
		s.pos++
	}
	return string(s.data[st:s.pos])
}

func (s *yamlSplitter) nextLine() int {
	for s.pos < len(s.data) {
		if s.data[s.pos] == '\n' {
			s.pos++
			break
		}
		s.pos++
	}
	return s.pos
}
