package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/auth"
	"github.com/rhuss/paydesk/pkg/storage"
)

// ListRecords returns all payment records in id order.
func (s *Service) ListRecords(ctx context.Context) ([]*api.Record, error) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return records, nil
}

// CreateRecord stores a new record. LastUpdatedBy defaults to the caller's
// name.
func (s *Service) CreateRecord(ctx context.Context, by *auth.Identity, req *api.CreateRecordRequest) (*api.Record, error) {
	if apiErr := api.ValidateRecordFields(&req.RecordFields, s.cfg.Validation); apiErr != nil {
		return nil, apiErr
	}

	r := &api.Record{}
	req.Apply(r)
	stampEditor(r, by)

	if err := s.store.CreateRecord(ctx, r); err != nil {
		return nil, fmt.Errorf("creating record: %w", err)
	}
	return r, nil
}

// UpdateRecord replaces the editable fields of record id.
func (s *Service) UpdateRecord(ctx context.Context, by *auth.Identity, id int64, req *api.UpdateRecordRequest) (*api.Record, error) {
	if req.ID != 0 && req.ID != id {
		return nil, api.NewInvalidRequestError("id", "id in body does not match the path")
	}
	if apiErr := api.ValidateRecordFields(&req.RecordFields, s.cfg.Validation); apiErr != nil {
		return nil, apiErr
	}

	r, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return nil, recordError("loading", err)
	}

	req.Apply(r)
	stampEditor(r, by)

	if err := s.store.UpdateRecord(ctx, r); err != nil {
		return nil, recordError("updating", err)
	}
	return r, nil
}

// DeleteRecord removes record id.
func (s *Service) DeleteRecord(ctx context.Context, id int64) error {
	if err := s.store.DeleteRecord(ctx, id); err != nil {
		return recordError("deleting", err)
	}
	return nil
}

func stampEditor(r *api.Record, by *auth.Identity) {
	if r.LastUpdatedBy == "" && by != nil {
		r.LastUpdatedBy = by.Name
	}
}

func recordError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return api.NewNotFoundError(msgRecordNotFound)
	}
	return fmt.Errorf("%s record: %w", op, err)
}
