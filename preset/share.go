package preset

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// shareMarker introduces the token in a share link. The token lives in the
// URL fragment so it is never sent to a server.
const shareMarker = "#preset="

// SharedPreset is the subset of a record carried by a share link.
type SharedPreset struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Models      []string `json:"models"`
}

// EncodeShareLink returns baseURL with any existing fragment replaced by a
// URL-safe base64 token of r's name, description and models.
func EncodeShareLink(r Record, baseURL string) string {
	data, _ := json.Marshal(SharedPreset{
		Name:        r.Name,
		Description: r.Description,
		Models:      cloneModels(r.Models),
	})
	base, _, _ := strings.Cut(baseURL, "#")
	return base + shareMarker + base64.RawURLEncoding.EncodeToString(data)
}

// DecodeShareLink extracts the preset from a share link. It reports false for
// links without a token and for tokens that do not decode to an object with a
// string name and a models array of strings.
func DecodeShareLink(link string) (SharedPreset, bool) {
	_, token, ok := strings.Cut(link, shareMarker)
	if !ok {
		return SharedPreset{}, false
	}
	token, _, _ = strings.Cut(token, "&")

	data, ok := decodeToken(token)
	if !ok {
		return SharedPreset{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return SharedPreset{}, false
	}
	var sp SharedPreset
	if !decodeField(fields, "name", &sp.Name) || !decodeField(fields, "models", &sp.Models) {
		return SharedPreset{}, false
	}
	if sp.Models == nil {
		sp.Models = []string{}
	}
	decodeField(fields, "description", &sp.Description)
	return sp, true
}

// decodeToken accepts both unpadded URL-safe tokens and the padded standard
// alphabet produced by browser btoa.
func decodeToken(token string) ([]byte, bool) {
	for _, enc := range []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	} {
		if data, err := enc.DecodeString(token); err == nil {
			return data, true
		}
	}
	return nil, false
}
