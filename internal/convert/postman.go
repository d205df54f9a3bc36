// Package convert builds core.Collection values from interchange formats,
// grounded on the teacher's internal/importer (internal/importer/postman.go)
// but decoding through a real third-party parser instead of a hand-rolled
// struct set, so the Item sum-type/DAG edges get exercised against an
// actual Postman Collection v2.1 implementation.
package convert

import (
	"fmt"
	"io"
	"strings"

	postman "github.com/rbretecher/go-postman-collection"

	"github.com/questapi/quest/internal/core"
)

// FromPostmanCollection decodes a Postman Collection v2.1 document into a
// core.Collection, preserving declaration order and recursing into nested
// folders the way the teacher's PostmanImporter.importItem does.
func FromPostmanCollection(r io.Reader) (*core.Collection, error) {
	pc, err := postman.ParseCollection(r)
	if err != nil {
		return nil, fmt.Errorf("convert: failed to parse postman collection: %w", err)
	}

	coll := &core.Collection{
		Info: core.CollectionInfo{
			Name:        pc.Info.Name,
			Description: stringifyDescription(pc.Info.Description),
		},
		Protocol:  "http",
		Variables: map[string]string{},
	}

	for _, v := range pc.Variables {
		coll.Variables[v.Key] = fmt.Sprint(v.Value)
	}

	if pc.Auth != nil {
		auth := convertAuth(pc.Auth)
		coll.Auth = &auth
	}

	for _, ev := range pc.Events {
		switch ev.Listen {
		case "prerequest":
			coll.PreScript = joinExec(ev.Script)
		case "test":
			coll.PostScript = joinExec(ev.Script)
		}
	}

	items, err := convertItems(pc.Items)
	if err != nil {
		return nil, err
	}
	coll.Items = items

	return coll, nil
}

func convertItems(src []*postman.Items) ([]*core.Item, error) {
	out := make([]*core.Item, 0, len(src))
	for _, it := range src {
		converted, err := convertItem(it)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func convertItem(it *postman.Items) (*core.Item, error) {
	if it.IsGroup() {
		children, err := convertItems(it.Items)
		if err != nil {
			return nil, err
		}
		return &core.Item{
			Kind:     core.ItemFolder,
			Name:     it.Name,
			Children: children,
		}, nil
	}

	if it.Request == nil {
		return nil, fmt.Errorf("convert: item %q has neither sub-items nor a request", it.Name)
	}

	req := it.Request
	data := core.RequestData{
		Method:  string(req.Method),
		Headers: map[string]string{},
	}
	if req.URL != nil {
		data.URL = req.URL.Raw
		if len(req.URL.Query) > 0 {
			data.Raw = map[string]any{"query": convertQuery(req.URL.Query)}
		}
	}
	for _, h := range req.Header {
		data.Headers[h.Key] = h.Value
	}
	if req.Body != nil {
		data.Body = convertBody(req.Body)
	}

	item := &core.Item{
		Kind: core.ItemRequest,
		Name: it.Name,
		Data: data,
	}
	if req.Auth != nil {
		auth := convertAuth(req.Auth)
		item.Auth = &auth
	}
	for _, ev := range it.Events {
		switch ev.Listen {
		case "prerequest":
			item.PreRequestScript = joinExec(ev.Script)
		case "test":
			item.PostRequestScript = joinExec(ev.Script)
		}
	}
	return item, nil
}

func convertQuery(params []*postman.QueryParam) []map[string]string {
	out := make([]map[string]string, 0, len(params))
	for _, q := range params {
		out = append(out, map[string]string{"key": q.Key, "value": q.Value})
	}
	return out
}

func convertBody(body *postman.Body) any {
	if body.Raw != "" {
		return body.Raw
	}
	if len(body.URLEncoded) > 0 {
		var pairs []string
		for _, p := range body.URLEncoded {
			pairs = append(pairs, p.Key+"="+p.Value)
		}
		return strings.Join(pairs, "&")
	}
	return nil
}

func convertAuth(auth *postman.Auth) core.AuthConfig {
	config := core.AuthConfig{Type: string(auth.Type), Params: map[string]any{}}
	switch auth.Type {
	case postman.Bearer:
		for _, kv := range auth.Bearer {
			if kv.Key == "token" {
				config.Params["token"] = kv.Value
			}
		}
	case postman.Basic:
		for _, kv := range auth.Basic {
			switch kv.Key {
			case "username":
				config.Params["username"] = kv.Value
			case "password":
				config.Params["password"] = kv.Value
			}
		}
	case postman.APIKey:
		for _, kv := range auth.APIKey {
			switch kv.Key {
			case "key":
				config.Params["key"] = kv.Value
			case "value":
				config.Params["value"] = kv.Value
			case "in":
				config.Params["in"] = kv.Value
			}
		}
	}
	return config
}

func joinExec(script *postman.Script) string {
	if script == nil {
		return ""
	}
	return strings.Join(script.Exec, "\n")
}

func stringifyDescription(d any) string {
	switch v := d.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}
