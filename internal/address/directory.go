package address

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"infohub/internal/domain"
	"infohub/internal/httputil"
)

// DirectoryEntry is a postal directory result.
type DirectoryEntry struct {
	PostalCode   string
	Street       string
	Complement   string
	Neighborhood string
	City         string
	State        string
}

// Directory maps an 8-digit postal code to address fields.
type Directory interface {
	Lookup(ctx context.Context, postalCode string) (*DirectoryEntry, error)
}

// ViaCEP talks to a ViaCEP-compatible directory: GET {base}/{cep}/json.
type ViaCEP struct {
	baseURL string
	client  *http.Client
}

func NewViaCEP(baseURL string, client *http.Client) *ViaCEP {
	if client == nil {
		client = httputil.NewHTTPClient(nil, 10*time.Second)
	}
	return &ViaCEP{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type viaCEPResponse struct {
	CEP         string   `json:"cep"`
	Logradouro  string   `json:"logradouro"`
	Complemento string   `json:"complemento"`
	Bairro      string   `json:"bairro"`
	Localidade  string   `json:"localidade"`
	UF          string   `json:"uf"`
	Erro        flexBool `json:"erro"`
}

func (v *ViaCEP) Lookup(ctx context.Context, postalCode string) (*DirectoryEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json", v.baseURL, postalCode), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := httputil.DoWithRetry(v.client, req, 1)
	if err != nil {
		return nil, fmt.Errorf("postal directory: %v: %w", err, domain.ErrBackendUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return nil, fmt.Errorf("postal directory rejected %s: %w", postalCode, domain.ErrInvalidFormat)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("postal directory status %d: %w", resp.StatusCode, domain.ErrBackendUnavailable)
	}
	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("postal directory read: %v: %w", err, domain.ErrBackendUnavailable)
	}

	var out viaCEPResponse
	if err := json.Unmarshal(bytes.TrimSpace(body), &out); err != nil {
		return nil, fmt.Errorf("postal directory decode: %v: %w", err, domain.ErrBackendUnavailable)
	}
	if out.Erro {
		return nil, fmt.Errorf("postal code %s: %w", postalCode, domain.ErrNotFound)
	}
	return &DirectoryEntry{
		PostalCode:   postalCode,
		Street:       out.Logradouro,
		Complement:   out.Complemento,
		Neighborhood: out.Bairro,
		City:         out.Localidade,
		State:        out.UF,
	}, nil
}

// flexBool accepts true, "true" and absent.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	*b = flexBool(strings.EqualFold(s, "true"))
	return nil
}
