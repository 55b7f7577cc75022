package locator

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// tableFile: формат файла SELECTORS_FILE
//
//	fields:
//	  payer_name:
//	    - { by: placeholder, value: "Nome do tomador", tag: input }
//	replace: [next_button]
//
// Кандидаты из файла ставятся перед встроенными; поля из replace заменяются целиком.
type tableFile struct {
	Fields  map[string][]Candidate `yaml:"fields"`
	Replace []string               `yaml:"replace"`
}

// LoadTable читает переопределения из YAML и накладывает их на base
func LoadTable(path string, base Table) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла селекторов: %w", err)
	}
	return ParseTable(data, base)
}

// ParseTable разбирает файл строго: неизвестные ключи и корень не-словарь дают ошибку.
// Пустой файл ничего не меняет.
func ParseTable(data []byte, base Table) (Table, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла селекторов: %w", err)
	}
	if root.Kind == 0 {
		return base.Clone(), nil
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("ошибка разбора файла селекторов: ожидается словарь с ключами fields и replace")
	}

	var f tableFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("ошибка разбора файла селекторов: %w", err)
	}

	out := base.Clone()

	replace := make(map[string]bool, len(f.Replace))
	for _, field := range f.Replace {
		replace[field] = true
	}

	for field, cands := range f.Fields {
		for i, c := range cands {
			if _, err := c.Selector(); err != nil {
				return nil, fmt.Errorf("поле %s, кандидат %d: %w", field, i+1, err)
			}
		}
		if replace[field] {
			out[field] = append([]Candidate(nil), cands...)
			continue
		}
		out[field] = mergeCandidates(cands, out[field])
	}

	return out, nil
}

func mergeCandidates(first, rest []Candidate) []Candidate {
	seen := make(map[Candidate]bool, len(first)+len(rest))
	merged := make([]Candidate, 0, len(first)+len(rest))
	for _, list := range [][]Candidate{first, rest} {
		for _, c := range list {
			if seen[c] {
				continue
			}
			seen[c] = true
			merged = append(merged, c)
		}
	}
	return merged
}
