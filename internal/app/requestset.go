package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Request is one entry in a request set file.
type Request struct {
	Method   string         `json:"method" yaml:"method"`
	Endpoint string         `json:"endpoint" yaml:"endpoint"`
	Body     map[string]any `json:"body,omitempty" yaml:"body,omitempty"`
}

// RequestSet groups the headers shared by every request with the requests to issue.
type RequestSet struct {
	Headers  map[string]string `json:"headers" yaml:"headers"`
	Requests []Request         `json:"requests" yaml:"requests"`
}

// LoadRequestSet loads a request set from a YAML or JSON file, picking the
// decoder by extension.
func LoadRequestSet(path string) (*RequestSet, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("request set file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open request set file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read request set file: %w", err)
	}

	var set RequestSet
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("decode yaml request set: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("decode json request set: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported request set extension %q", ext)
	}

	if err := set.validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

func (s *RequestSet) validate() error {
	if len(s.Requests) == 0 {
		return errors.New("request set contains no requests")
	}
	for i := range s.Requests {
		req := &s.Requests[i]
		req.Method = strings.ToUpper(strings.TrimSpace(req.Method))
		switch req.Method {
		case http.MethodGet, http.MethodPost:
		default:
			return fmt.Errorf("request %d: unsupported method %q", i, req.Method)
		}
		if strings.TrimSpace(req.Endpoint) == "" {
			return fmt.Errorf("request %d: endpoint is empty", i)
		}
	}
	return nil
}
