package service

import (
	"context"

	"quotary/internal/core/oid"
	"quotary/internal/modkit/repokit"
	"quotary/internal/services/quotes/domain"
)

// FirstID implements domain.FeedPort
func (s *Svc) FirstID(ctx context.Context) (string, error) {
	var id string
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		id, err = s.Binder.Bind(q).FirstActiveID(ctx)
		return err
	})
	return id, err
}

// Next implements domain.FeedPort. The cursor is a resumption hint, not
// a snapshot offset: quotes that finalized since the cursor was handed
// out are skipped silently, and quotes inserted ahead of it show up
func (s *Svc) Next(ctx context.Context, start string, nsfwFilter bool) (domain.FeedItem, error) {
	if err := oid.Validate(start); err != nil {
		return domain.FeedItem{}, err
	}

	var item domain.FeedItem
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		r := s.Binder.Bind(q)
		from := start
		for {
			rows, err := r.ScanActiveFrom(ctx, from, s.Cfg.ScanBatch)
			if err != nil {
				return err
			}
			for _, row := range rows {
				if nsfwFilter && row.NSFWCount >= s.Cfg.NSFWThreshold {
					continue
				}
				item = row.FeedItem()
				return nil
			}
			if len(rows) < s.Cfg.ScanBatch {
				return domain.ErrFeedExhausted
			}
			from, err = oid.Next(rows[len(rows)-1].ID)
			if err != nil {
				return err
			}
		}
	})
	if err != nil {
		return domain.FeedItem{}, err
	}
	return item, nil
}

// Advance implements domain.FeedPort
func (s *Svc) Advance(id string) (string, error) {
	return oid.Next(id)
}
