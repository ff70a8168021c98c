// Copyright (C) 2026 The Reel Authors.
//
// This file is part of Reel.
//
// Reel is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Reel is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Reel.  If not, see <https://www.gnu.org/licenses/>.

package search

import (
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/defsub/reel/config"
)

type FieldMap map[string]interface{}
type IndexMap map[string]FieldMap

type Search struct {
	config   config.SearchConfig
	index    bleve.Index
	path     string
	Keywords []string
	// Words are fields split on whitespace only, with no stop words, for
	// prefix matching.
	Words []string
}

const wordsAnalyzer = "words"

func NewSearch(config *config.Config) *Search {
	return &Search{config: config.Search}
}

func (s *Search) mapping() (*mapping.IndexMappingImpl, error) {
	m := bleve.NewIndexMapping()
	err := m.AddCustomAnalyzer(wordsAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     whitespace.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, err
	}
	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name
	wordsFieldMapping := bleve.NewTextFieldMapping()
	wordsFieldMapping.Analyzer = wordsAnalyzer
	docMapping := bleve.NewDocumentMapping()
	for _, v := range s.Keywords {
		docMapping.AddFieldMappingsAt(v, keywordFieldMapping)
	}
	for _, v := range s.Words {
		docMapping.AddFieldMappingsAt(v, wordsFieldMapping)
	}
	m.AddDocumentMapping("_default", docMapping)
	return m, nil
}

func (s *Search) Open(name string) error {
	s.path = fmt.Sprintf("%s/%s.bleve", s.config.BleveDir, name)
	m, err := s.mapping()
	if err != nil {
		return err
	}
	index, err := bleve.New(s.path, m)
	if err == bleve.ErrorIndexPathExists {
		index, err = bleve.Open(s.path)
		if err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	s.index = index
	return nil
}

func (s *Search) Close() {
	if s.index != nil {
		s.index.Close()
	}
}

// Clear drops every document by recreating the index.
func (s *Search) Clear() error {
	s.Close()
	if err := os.RemoveAll(s.path); err != nil {
		return err
	}
	m, err := s.mapping()
	if err != nil {
		return err
	}
	index, err := bleve.New(s.path, m)
	if err != nil {
		return err
	}
	s.index = index
	return nil
}

// see https://blevesearch.com/docs/Query-String-Query/
func (s *Search) Search(q string, limit int) ([]string, error) {
	return s.run(bleve.NewQueryStringQuery(q), limit)
}

// Prefix matches documents where every term is a prefix of some word in
// field. Terms must already be folded the way the field was indexed.
func (s *Search) Prefix(field string, terms []string, limit int) ([]string, error) {
	var queries []query.Query
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		q := bleve.NewPrefixQuery(t)
		q.SetField(field)
		queries = append(queries, q)
	}
	if len(queries) == 0 {
		return nil, nil
	}
	return s.run(bleve.NewConjunctionQuery(queries...), limit)
}

func (s *Search) run(q query.Query, limit int) ([]string, error) {
	searchRequest := bleve.NewSearchRequest(q)
	searchRequest.Size = limit
	searchResult, err := s.index.Search(searchRequest)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, hit := range searchResult.Hits {
		keys = append(keys, hit.ID)
	}
	return keys, nil
}

func (s *Search) Index(m IndexMap) error {
	batch := s.index.NewBatch()
	for k, v := range m {
		if err := batch.Index(k, v); err != nil {
			return err
		}
	}
	return s.index.Batch(batch)
}

func (s *Search) Delete(ids ...string) error {
	batch := s.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return s.index.Batch(batch)
}

func (s *Search) Count() (uint64, error) {
	return s.index.DocCount()
}

func CloneFields(fields FieldMap) FieldMap {
	target := make(FieldMap)
	for k, v := range fields {
		target[k] = v
	}
	return target
}
