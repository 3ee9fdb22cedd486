package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// AllCollections lists every collection the portal persists
var AllCollections = []string{Users, Deposits, Withdrawals, Admins, Banners, Config, ChatMain, ChatSupport}

// Transform rewrites one collection document while it is copied
type Transform func(collection string, data []byte) ([]byte, error)

// CopyReport says what Copy did per collection
type CopyReport struct {
	Copied  []string
	Missing []string
	Invalid []string
}

// Copy moves collections from src to dst. Collections that do not exist in
// src are skipped and invalid JSON is reported and left behind. transform
// may be nil.
func Copy(ctx context.Context, src, dst Backend, collections []string, transform Transform) (*CopyReport, error) {
	report := &CopyReport{}
	for _, name := range collections {
		data, err := src.Load(ctx, name)
		if errors.Is(err, ErrNoDocument) {
			report.Missing = append(report.Missing, name)
			continue
		}
		if err != nil {
			return report, fmt.Errorf("load %s: %w", name, err)
		}
		if !json.Valid(data) {
			report.Invalid = append(report.Invalid, name)
			continue
		}

		if transform != nil {
			if data, err = transform(name, data); err != nil {
				return report, fmt.Errorf("transform %s: %w", name, err)
			}
		}
		if err := dst.Save(ctx, name, data); err != nil {
			return report, fmt.Errorf("save %s: %w", name, err)
		}
		report.Copied = append(report.Copied, name)
	}
	return report, nil
}
