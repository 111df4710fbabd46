package storage

import (
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/domain/search"
	"chat-relay/errors"
	"chat-relay/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	userPrefix   = "user:"
	blockPrefix  = "block:"
	reportPrefix = "report:"
)

// Directory stores accounts, blocks and reports in BadgerDB.
// Keys:
//
//	user:{username}
//	block:{blocker}:{blocked}
//	report:{reported}:{created_at padded}:{report_id}
//
// Values are protobuf encoded structpb.Struct records. Reports are also
// indexed in bluge for full text search on the reason.
type Directory struct {
	db    *badger.DB
	index *ReportIndex
	log   *slog.Logger
}

var _ repositories.IAccountRepository = (*Directory)(nil)

func NewDirectory(db *badger.DB, index *ReportIndex, log *slog.Logger) *Directory {
	return &Directory{db: db, index: index, log: log.With("component", "badger_directory")}
}

func (d *Directory) CreateUser(_ context.Context, username, hashedPassword string, roles []string) (repositories.User, error) {
	user := repositories.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hashedPassword,
		Roles:        roles,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := marshalUser(user)
	if err != nil {
		return repositories.User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = d.db.Update(func(txn *badger.Txn) error {
		key := []byte(userPrefix + username)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return repositories.User{}, err
	}
	return user, nil
}

func (d *Directory) GetUser(_ context.Context, username string) (repositories.User, error) {
	var user repositories.User
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userPrefix + username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			user, err = unmarshalUser(val)
			return err
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return repositories.User{}, errors.ErrUserNotFound
	}
	return user, err
}

// IsBlocked is directional: blocker muted blocked.
func (d *Directory) IsBlocked(_ context.Context, blocker, blocked domain.Identity) (bool, error) {
	err := d.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(blockKey(blocker, blocked))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (d *Directory) Block(_ context.Context, blocker, blocked domain.Identity) error {
	if blocker == blocked {
		return errors.ErrCannotBlockSelf
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blockKey(blocker, blocked), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

// Unblock is a no-op when no block exists.
func (d *Directory) Unblock(_ context.Context, blocker, blocked domain.Identity) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(blockKey(blocker, blocked))
	})
}

func (d *Directory) Blocked(_ context.Context, blocker domain.Identity) ([]domain.Identity, error) {
	var res []domain.Identity
	prefix := []byte(blockPrefix + blocker.String() + ":")
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			res = append(res, domain.Identity(strings.TrimPrefix(string(it.Item().Key()), string(prefix))))
		}
		return nil
	})
	return res, err
}

// RecordReport persists the report then indexes its reason.
// An indexing failure is logged, the report stays stored.
func (d *Directory) RecordReport(_ context.Context, report chat.Report) error {
	data, err := marshalReport(report)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	err = d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(reportKey(report), data)
	})
	if err != nil {
		return err
	}
	if d.index != nil {
		if err := d.index.Index(report); err != nil {
			d.log.Warn("Report not indexed", "report_id", report.ID, "error", err)
		}
	}
	return nil
}

// ListReports returns the most recent reports first, optionally for one reported identity.
func (d *Directory) ListReports(_ context.Context, reported *domain.Identity, limit int) ([]chat.Report, error) {
	var res []chat.Report
	prefix := []byte(reportPrefix)
	if reported != nil {
		prefix = []byte(reportPrefix + reported.String() + ":")
	}
	err := d.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				report, err := unmarshalReport(val)
				if err != nil {
					return err
				}
				res = append(res, report)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortReports(res)
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// SearchReports runs query against the report index and loads the matching reports.
func (d *Directory) SearchReports(ctx context.Context, query string, limit int) ([]chat.Report, uint64, error) {
	if d.index == nil {
		return nil, 0, fmt.Errorf("report index is not configured")
	}
	hits, total, err := d.index.Search(ctx, search.NewReportQuery(query), limit)
	if err != nil {
		return nil, 0, err
	}
	var res []chat.Report
	err = d.db.View(func(txn *badger.Txn) error {
		for _, hit := range hits {
			item, err := txn.Get(hit.key())
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				d.log.Debug("Indexed report missing from store", "report_id", hit.ID)
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				report, err := unmarshalReport(val)
				if err != nil {
					return err
				}
				res = append(res, report)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return res, total, err
}

// Close only closes the index; the badger handle is owned by the caller.
func (d *Directory) Close() error {
	if d.index == nil {
		return nil
	}
	return d.index.Close()
}

func blockKey(blocker, blocked domain.Identity) []byte {
	return []byte(blockPrefix + blocker.String() + ":" + blocked.String())
}

func reportKey(report chat.Report) []byte {
	return reportKeyOf(report.Reported, report.CreatedAt, report.ID)
}

func reportKeyOf(reported domain.Identity, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%s", reportPrefix, reported, at.UnixNano(), id))
}

func sortReports(reports []chat.Report) {
	slices.SortFunc(reports, func(a, b chat.Report) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func marshalUser(user repositories.User) ([]byte, error) {
	record, err := structpb.NewStruct(map[string]any{
		"id":            user.ID,
		"username":      user.Username,
		"password_hash": user.PasswordHash,
		"roles":         lo.Map(user.Roles, func(r string, _ int) any { return r }),
		"created_at":    user.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(record)
}

func unmarshalUser(data []byte) (repositories.User, error) {
	var record structpb.Struct
	if err := proto.Unmarshal(data, &record); err != nil {
		return repositories.User{}, err
	}
	fields := record.GetFields()
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"].GetStringValue())
	if err != nil {
		return repositories.User{}, err
	}
	return repositories.User{
		ID:           fields["id"].GetStringValue(),
		Username:     fields["username"].GetStringValue(),
		PasswordHash: fields["password_hash"].GetStringValue(),
		Roles: lo.Map(fields["roles"].GetListValue().GetValues(), func(v *structpb.Value, _ int) string {
			return v.GetStringValue()
		}),
		CreatedAt: createdAt,
	}, nil
}

func marshalReport(report chat.Report) ([]byte, error) {
	values := map[string]any{
		"id":         report.ID.String(),
		"reporter":   report.Reporter.String(),
		"reported":   report.Reported.String(),
		"reason":     report.Reason,
		"created_at": report.CreatedAt.Format(time.RFC3339Nano),
	}
	if report.MessageID != nil {
		values["message_id"] = report.MessageID.String()
	}
	record, err := structpb.NewStruct(values)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(record)
}

func unmarshalReport(data []byte) (chat.Report, error) {
	var record structpb.Struct
	if err := proto.Unmarshal(data, &record); err != nil {
		return chat.Report{}, err
	}
	fields := record.GetFields()
	id, err := uuid.Parse(fields["id"].GetStringValue())
	if err != nil {
		return chat.Report{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"].GetStringValue())
	if err != nil {
		return chat.Report{}, err
	}
	report := chat.Report{
		ID:        id,
		Reporter:  domain.Identity(fields["reporter"].GetStringValue()),
		Reported:  domain.Identity(fields["reported"].GetStringValue()),
		Reason:    fields["reason"].GetStringValue(),
		CreatedAt: createdAt,
	}
	if raw, ok := fields["message_id"]; ok {
		messageID, err := uuid.Parse(raw.GetStringValue())
		if err != nil {
			return chat.Report{}, err
		}
		report.MessageID = &messageID
	}
	return report, nil
}
