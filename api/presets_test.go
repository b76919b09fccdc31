package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"multichat/preset"
)

type presetsBody struct {
	Presets []preset.Record   `json:"presets"`
	Usage   preset.UsageStats `json:"usage"`
}

func decodePresets(t *testing.T, resp *http.Response) presetsBody {
	t.Helper()
	defer resp.Body.Close()
	var body presetsBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestGetPresetsDefaults(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/presets")
	if err != nil {
		t.Fatalf("GET /api/presets: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("expected json content-type, got %q", ct)
	}
	body := decodePresets(t, resp)
	if len(body.Presets) != len(preset.DefaultCatalog()) {
		t.Fatalf("expected %d presets, got %d", len(preset.DefaultCatalog()), len(body.Presets))
	}
}

func TestAddPresetsAndGet(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := do(t, http.MethodPost, srv.URL+"/api/presets",
		`[{"sourceId":"s1","sourceType":"custom","name":"Hello","models":["a:1"]}]`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	body := decodePresets(t, resp)
	added := body.Presets[len(body.Presets)-1]
	if added.Name != "Hello" || added.ID == "" {
		t.Fatalf("unexpected preset %+v", added)
	}

	getResp, err := http.Get(srv.URL + "/api/presets/" + added.ID)
	if err != nil {
		t.Fatalf("GET preset: %v", err)
	}
	defer getResp.Body.Close()
	var got preset.Record
	json.NewDecoder(getResp.Body).Decode(&got)
	if got.ID != added.ID {
		t.Fatalf("expected %q, got %+v", added.ID, got)
	}
}

func TestAddPresetsValidation(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	for _, body := range []string{"not-json", `[{"name":"x","sourceType":"weird"}]`} {
		resp := do(t, http.MethodPost, srv.URL+"/api/presets", body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestGetPresetNotFound(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/presets/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdateRemoveFavoriteReorder(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	list := decodePresets(t, do(t, http.MethodGet, srv.URL+"/api/presets", "")).Presets
	first, second := list[0].ID, list[1].ID

	body := decodePresets(t, do(t, http.MethodPatch, srv.URL+"/api/presets/"+first, `{"name":"Renamed"}`))
	if body.Presets[0].Name != "Renamed" || !body.Presets[0].IsModified {
		t.Fatalf("update not applied: %+v", body.Presets[0])
	}

	// Unknown ids are a no-op, not an error.
	resp := do(t, http.MethodPatch, srv.URL+"/api/presets/ghost", `{"name":"x"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for unknown id, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	body = decodePresets(t, do(t, http.MethodPost, srv.URL+"/api/presets/reorder", `{"from":0,"to":1}`))
	if body.Presets[0].ID != second || body.Presets[1].ID != first {
		t.Fatal("reorder not applied")
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/presets/reorder", `{"from":0}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing index, got %d", resp.StatusCode)
	}

	do(t, http.MethodPost, srv.URL+"/api/presets/"+first+"/favorite", "").Body.Close()
	body = decodePresets(t, do(t, http.MethodPost, srv.URL+"/api/presets/sort-favorites", ""))
	if body.Presets[0].ID != first || !body.Presets[0].IsFavorite {
		t.Fatalf("favorite should lead: %+v", body.Presets[0])
	}

	body = decodePresets(t, do(t, http.MethodDelete, srv.URL+"/api/presets/"+first, ""))
	if len(body.Presets) != len(list)-1 {
		t.Fatalf("expected %d presets, got %d", len(list)-1, len(body.Presets))
	}

	body = decodePresets(t, do(t, http.MethodPost, srv.URL+"/api/presets/reset", ""))
	if len(body.Presets) != len(list) {
		t.Fatalf("reset should restore %d presets, got %d", len(list), len(body.Presets))
	}
}

func TestUsePreset(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	list := decodePresets(t, do(t, http.MethodGet, srv.URL+"/api/presets", "")).Presets
	id := list[0].ID

	useResp, err := http.Post(srv.URL+"/api/presets/"+id+"/use", "application/json", nil)
	if err != nil {
		t.Fatalf("POST .../use: %v", err)
	}
	defer useResp.Body.Close()
	if useResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", useResp.StatusCode)
	}
	var result map[string][]string
	json.NewDecoder(useResp.Body).Decode(&result)
	ru := result["recentlyUsed"]
	if len(ru) == 0 || ru[0] != id {
		t.Fatalf("expected %s in recentlyUsed, got %v", id, ru)
	}

	top, err := http.Get(srv.URL + "/api/presets/usage/top?limit=1")
	if err != nil {
		t.Fatal(err)
	}
	defer top.Body.Close()
	var most []preset.Record
	json.NewDecoder(top.Body).Decode(&most)
	if len(most) != 1 || most[0].ID != id || most[0].UsageCount != 1 {
		t.Fatalf("unexpected most used %+v", most)
	}
}

func TestUsePresetNonExistent(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	// No-op for an ID that doesn't exist — should still return 200.
	resp, err := http.Post(srv.URL+"/api/presets/nonexistent/use", "application/json", nil)
	if err != nil {
		t.Fatalf("POST .../use: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestExportImport(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/presets/export")
	if err != nil {
		t.Fatal(err)
	}
	doc, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "attachment") {
		t.Fatal("export should be served as an attachment")
	}

	imp := do(t, http.MethodPost, srv.URL+"/api/presets/import", string(doc))
	if imp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", imp.StatusCode)
	}
	defer imp.Body.Close()
	var body struct {
		Imported []preset.Record `json:"imported"`
		Presets  []preset.Record `json:"presets"`
	}
	json.NewDecoder(imp.Body).Decode(&body)
	n := len(preset.DefaultCatalog())
	if len(body.Imported) != n || len(body.Presets) != 2*n {
		t.Fatalf("expected %d imported and %d total, got %d and %d", n, 2*n, len(body.Imported), len(body.Presets))
	}

	bad := do(t, http.MethodPost, srv.URL+"/api/presets/import", `{"presets":"nope"}`)
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", bad.StatusCode)
	}
}

func TestShareAndAccept(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	list := decodePresets(t, do(t, http.MethodGet, srv.URL+"/api/presets", "")).Presets
	resp, err := http.Get(srv.URL + "/api/presets/" + list[0].ID + "/share?base=" + url.QueryEscape("https://chat.example/app"))
	if err != nil {
		t.Fatal(err)
	}
	var share map[string]string
	json.NewDecoder(resp.Body).Decode(&share)
	resp.Body.Close()
	if !strings.HasPrefix(share["url"], "https://chat.example/app#preset=") {
		t.Fatalf("unexpected share url %q", share["url"])
	}

	payload, _ := json.Marshal(map[string]string{"url": share["url"]})
	accept := do(t, http.MethodPost, srv.URL+"/api/presets/shared", string(payload))
	defer accept.Body.Close()
	if accept.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", accept.StatusCode)
	}
	var rec preset.Record
	json.NewDecoder(accept.Body).Decode(&rec)
	if rec.Name != list[0].Name || rec.SourceType != preset.SourceCustom {
		t.Fatalf("unexpected shared preset %+v", rec)
	}

	bad := do(t, http.MethodPost, srv.URL+"/api/presets/shared", `{"url":"https://chat.example/#preset=@@@"}`)
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", bad.StatusCode)
	}

	missing, _ := http.Get(srv.URL + "/api/presets/ghost/share")
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}
}

func TestTemplates(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, _ := http.Get(srv.URL + "/api/templates/categories")
	var cats []preset.CategorySummary
	json.NewDecoder(resp.Body).Decode(&cats)
	resp.Body.Close()
	if len(cats) != 5 {
		t.Fatalf("expected 5 categories, got %d", len(cats))
	}

	resp, _ = http.Get(srv.URL + "/api/templates?category=writing")
	var tpls []preset.Template
	json.NewDecoder(resp.Body).Decode(&tpls)
	resp.Body.Close()
	if len(tpls) != cats[1].Count {
		t.Fatalf("expected %d writing templates, got %d", cats[1].Count, len(tpls))
	}

	resp, _ = http.Get(srv.URL + "/api/templates?category=poetry")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	inst := do(t, http.MethodPost, srv.URL+"/api/templates/"+tpls[0].ID+"/instantiate", "")
	defer inst.Body.Close()
	if inst.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", inst.StatusCode)
	}
	var rec preset.Record
	json.NewDecoder(inst.Body).Decode(&rec)
	if rec.SourceID != tpls[0].ID {
		t.Fatalf("unexpected record %+v", rec)
	}

	missing := do(t, http.MethodPost, srv.URL+"/api/templates/nope/instantiate", "")
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}
}
