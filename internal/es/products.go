package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Skotchmaster/coffee_shop/internal/models"
)

const searchSize = 50

// ProductIndex keeps product documents in sync for full-text search.
type ProductIndex interface {
	Index(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, query string) ([]models.Product, error)
	Enabled() bool
}

type Products struct {
	client *elasticsearch.Client
	index  string
}

func NewProducts(client *elasticsearch.Client, index string) *Products {
	return &Products{client: client, index: index}
}

func (p *Products) Enabled() bool { return true }

func (p *Products) Index(ctx context.Context, prod *models.Product) error {
	body, err := json.Marshal(prod)
	if err != nil {
		return err
	}
	res, err := p.client.Index(p.index, bytes.NewReader(body),
		p.client.Index.WithContext(ctx),
		p.client.Index.WithDocumentID(strconv.FormatUint(uint64(prod.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index product %d: %w", prod.ID, err)
	}
	return checkResponse(res, "index product")
}

func (p *Products) Delete(ctx context.Context, id uint) error {
	res, err := p.client.Delete(p.index, strconv.FormatUint(uint64(id), 10),
		p.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	return checkResponse(res, "delete product")
}

func searchBody(query string) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "tasteDescription"},
				"fuzziness": "AUTO",
			},
		},
		"size": searchSize,
	}
}

func (p *Products) Search(ctx context.Context, query string) ([]models.Product, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchBody(query)); err != nil {
		return nil, err
	}

	res, err := p.client.Search(
		p.client.Search.WithContext(ctx),
		p.client.Search.WithIndex(p.index),
		p.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search error: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search error: %s: %s", res.Status(), body)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	prods := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = hit.Source
	}
	return prods, nil
}

func checkResponse(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%s: %s: %s", op, res.Status(), body)
	}
	return nil
}

// Disabled is used when ES_URL is empty; callers fall back to SQL search.
type Disabled struct{}

func (Disabled) Enabled() bool                                            { return false }
func (Disabled) Index(context.Context, *models.Product) error             { return nil }
func (Disabled) Delete(context.Context, uint) error                       { return nil }
func (Disabled) Search(context.Context, string) ([]models.Product, error) { return nil, nil }
