// Package issuer holds the fixed business profile printed on every proposal:
// legal identifiers, address, contact channels, banking details and the
// signature block. A Profile is a value; once loaded it is shared read-only.
package issuer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile describes the entity issuing proposals.
type Profile struct {
	// LegalName is the registered company name.
	LegalName string `yaml:"legal_name" json:"legal_name"`
	// CNPJ is the federal company registry number.
	CNPJ string `yaml:"cnpj" json:"cnpj"`
	// StateRegistration is the state tax identifier (IE).
	StateRegistration string `yaml:"state_registration" json:"state_registration"`
	// MunicipalRegistration is the municipal tax identifier (IM).
	MunicipalRegistration string `yaml:"municipal_registration" json:"municipal_registration"`

	Address   Address   `yaml:"address" json:"address"`
	Contact   Contact   `yaml:"contact" json:"contact"`
	Bank      Bank      `yaml:"bank" json:"bank"`
	Signatory Signatory `yaml:"signatory" json:"signatory"`
	Images    Images    `yaml:"images" json:"images"`
}

// Address is the postal address of the issuer.
type Address struct {
	Street     string `yaml:"street" json:"street"`
	District   string `yaml:"district" json:"district"`
	City       string `yaml:"city" json:"city"`
	State      string `yaml:"state" json:"state"`
	PostalCode string `yaml:"postal_code" json:"postal_code"`
}

// Line returns "street - district", skipping empty parts.
func (a Address) Line() string {
	return joinNonEmpty(" - ", a.Street, a.District)
}

// CityState returns "city / state", skipping empty parts.
func (a Address) CityState() string {
	return joinNonEmpty(" / ", a.City, a.State)
}

// Contact lists the channels a client can use to reach the issuer.
type Contact struct {
	Email string `yaml:"email" json:"email"`
	Phone string `yaml:"phone" json:"phone"`
}

// Bank holds payment details.
type Bank struct {
	Name    string `yaml:"name" json:"name"`
	Branch  string `yaml:"branch" json:"branch"`
	Account string `yaml:"account" json:"account"`
	PixKey  string `yaml:"pix_key" json:"pix_key"`
}

// Signatory is the person signing the proposal.
type Signatory struct {
	Name string `yaml:"name" json:"name"`
	CPF  string `yaml:"cpf" json:"cpf"`
}

// Images holds optional image paths. Missing files are tolerated by the
// renderer.
type Images struct {
	Logo      string `yaml:"logo" json:"logo"`
	Signature string `yaml:"signature" json:"signature"`
}

// Default returns the built-in issuer profile.
func Default() Profile {
	return Profile{
		LegalName:             "EMPRESA EXEMPLO SERVIÇOS LTDA",
		CNPJ:                  "12.345.678/0001-90",
		StateRegistration:     "11.222.333.444",
		MunicipalRegistration: "1.234.567-8",
		Address: Address{
			Street:     "Rua das Laranjeiras, 100",
			District:   "Tijuca",
			City:       "Rio de Janeiro",
			State:      "RJ",
			PostalCode: "20000-000",
		},
		Contact: Contact{
			Email: "contato@empresaexemplo.com.br",
			Phone: "(21) 99999-0000",
		},
		Bank: Bank{
			Name:    "Inter",
			Branch:  "0001",
			Account: "1234567-8",
			PixKey:  "12.345.678/0001-90",
		},
		Signatory: Signatory{
			Name: "Responsável Exemplo",
			CPF:  "000.000.000-00",
		},
		Images: Images{
			Logo:      "logo.png",
			Signature: "assinatura.png",
		},
	}
}

// Validate checks that the identity, banking and signature blocks carry
// the fields the document cannot do without.
func (p Profile) Validate() error {
	var errs []error
	required := []struct{ name, value string }{
		{"legal_name", p.LegalName},
		{"cnpj", p.CNPJ},
		{"bank.name", p.Bank.Name},
		{"signatory.name", p.Signatory.Name},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", f.name))
		}
	}
	if strings.TrimSpace(p.Bank.Account) == "" && strings.TrimSpace(p.Bank.PixKey) == "" {
		errs = append(errs, errors.New("bank.account or bank.pix_key is required"))
	}
	return errors.Join(errs...)
}

// Load reads a YAML profile. Only image paths fall back to the Default
// ones when absent; every printed field comes from the file. Relative image paths are resolved against the directory
// of the file.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read issuer profile: %w", err)
	}

	p, err := Parse(data)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	p.Images.Logo = resolve(dir, p.Images.Logo)
	p.Images.Signature = resolve(dir, p.Images.Signature)

	return p, nil
}

// Parse decodes and validates a YAML profile. Image paths absent from the
// file default to those of Default.
func Parse(data []byte) (Profile, error) {
	p := Profile{Images: Default().Images}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("invalid issuer profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("invalid issuer profile: %w", err)
	}
	return p, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, sep)
}
