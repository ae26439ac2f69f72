package util

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type Secrets struct {
	Db       DbSecrets `json:"db"`
	Holdings struct {
		ApiKey  string `json:"apiKey"`
		BaseURL string `json:"baseUrl"`
	} `json:"holdings"`
	Alpaca AlpacaSecrets `json:"alpaca"`
}

type AlpacaSecrets struct {
	ApiKey    string `json:"apiKey"`
	ApiSecret string `json:"apiSecret"`
	Endpoint  string `json:"endpoint"`
}

func (t AlpacaSecrets) IsSet() bool {
	return t.ApiKey != "" && t.ApiSecret != ""
}

type DbSecrets struct {
	Host      string `json:"host"`
	User      string `json:"user"`
	Port      string `json:"port"`
	Password  string `json:"password"`
	Database  string `json:"database"`
	EnableSsl bool   `json:"enableSsl"`
}

func (t DbSecrets) ToConnectionStr() string {
	x := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		t.Host, t.Port, t.User, t.Password, t.Database)
	if !t.EnableSsl {
		x += " sslmode=disable"
	}
	return x
}

func (t DbSecrets) IsSet() bool {
	return t.Host != ""
}

func secretsFile() string {
	if f := os.Getenv("SECTOR_SECRETS"); f != "" {
		return f
	}
	switch strings.ToLower(os.Getenv("SECTOR_ENV")) {
	case "dev":
		return "secrets-dev.json"
	case "test":
		return "secrets-test.json"
	}
	return "secrets.json"
}

// LoadSecrets reads the secrets file for the current SECTOR_ENV. A
// missing file is not an error; callers decide which secrets they need
func LoadSecrets() (*Secrets, error) {
	f, err := os.ReadFile(secretsFile())
	if os.IsNotExist(err) {
		return &Secrets{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("could not open secrets file: %w", err)
	}

	secrets := Secrets{}
	err = json.Unmarshal(f, &secrets)
	if err != nil {
		return nil, fmt.Errorf("failed to parse secrets file: %w", err)
	}

	return &secrets, nil
}
