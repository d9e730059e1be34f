package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"dictlookup/internal/array"
	"dictlookup/internal/dictionary"
)

type lookupRequest struct {
	Keys []any `json:"keys"`
}

type lookupResponse struct {
	Dictionary string `json:"dictionary"`
	Found      []bool `json:"found"`
	// Positions holds null for keys that were not found.
	Positions []*int           `json:"positions"`
	Rows      int              `json:"rows"`
	Columns   map[string][]any `json:"columns"`
}

type attributeInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type dictionaryInfo struct {
	Name       string          `json:"name"`
	Rows       int             `json:"rows"`
	Attributes []attributeInfo `json:"attributes"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listDictionaries(c echo.Context) error {
	names := s.catalog.Names()
	out := make([]dictionaryInfo, 0, len(names))
	for _, name := range names {
		d, err := s.catalog.Get(name)
		if errors.Is(err, dictionary.ErrUnknownDictionary) {
			// Removed since Names was called.
			continue
		}
		if err != nil {
			return err
		}
		info := dictionaryInfo{Name: name, Rows: d.Len()}
		for _, f := range d.Schema().Fields {
			info.Attributes = append(info.Attributes, attributeInfo{Name: f.Name, Type: f.Type.String()})
		}
		out = append(out, info)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) lookup(c echo.Context) error {
	name := c.Param("name")
	pool, ok := s.pools[name]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown dictionary %s", name))
	}
	var req lookupRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	keys, err := keyColumn(req.Keys)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}

	res, err := pool.Lookup(c.Request().Context(), keys, keys.Len())
	if err != nil {
		return fmt.Errorf("lookup in %s: %w", name, err)
	}

	resp := lookupResponse{
		Dictionary: name,
		Found:      res.Found,
		Positions:  make([]*int, len(res.Found)),
		Rows:       res.Rows(),
		Columns:    make(map[string][]any, res.Block.Width()),
	}
	for i := range res.Found {
		if res.Found[i] {
			resp.Positions[i] = &res.Positions[i]
		}
	}
	for _, col := range res.Block.Columns() {
		vals := make([]any, res.Rows())
		for i := range vals {
			vals[i] = col.Any(i)
		}
		resp.Columns[col.Name()] = vals
	}
	return c.JSON(http.StatusOK, resp)
}

func keyColumn(raw []any) (array.Column, error) {
	b, err := array.NewBuilder(dictionary.KeyType, len(raw))
	if err != nil {
		return nil, err
	}
	for i, v := range raw {
		if err := b.Append(v); err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
	}
	return b.Build("key"), nil
}
