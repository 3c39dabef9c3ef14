package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/reelway/media-server-go/internal/model"
)

// ErrDuplicateCode is returned by Create when either code collides with a
// live record. Callers regenerate and retry rather than failing silently.
var ErrDuplicateCode = errors.New("pairing code collision")

type DevicePairingRepository interface {
	Create(ctx context.Context, params model.CreateDevicePairingParams) (*model.DevicePairing, error)
	FindByDeviceCodeHash(ctx context.Context, hash string) (*model.DevicePairing, error)
	// FindActiveByUserCode matches pending or linked records whose window has
	// not passed. Expired records never shadow a fresh code.
	FindActiveByUserCode(ctx context.Context, userCode string) (*model.DevicePairing, error)
	// Link transitions pending -> linked and binds the user. Returns the
	// number of rows affected; zero means the record was no longer pending.
	Link(ctx context.Context, id string, userID string) (int64, error)
	// Consume transitions linked -> expired exactly once. Returns the number
	// of rows affected; zero means another poller already won the race.
	Consume(ctx context.Context, id string) (int64, error)
	DeleteExpired(ctx context.Context, retention time.Duration) (int64, error)
}

type devicePairingRepo struct {
	db *sqlx.DB
}

func NewDevicePairingRepository(db *sqlx.DB) DevicePairingRepository {
	return &devicePairingRepo{db: db}
}

func (r *devicePairingRepo) Create(ctx context.Context, params model.CreateDevicePairingParams) (*model.DevicePairing, error) {
	var p model.DevicePairing
	err := r.db.GetContext(ctx, &p, `
		INSERT INTO device_pairings (id, device_code_hash, user_code, status, device_type, expires_at)
		VALUES ($1, $2, $3, 'pending', $4, $5)
		RETURNING *
	`, params.ID, params.DeviceCodeHash, params.UserCode, params.DeviceType, params.ExpiresAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return &p, nil
}

func (r *devicePairingRepo) FindByDeviceCodeHash(ctx context.Context, hash string) (*model.DevicePairing, error) {
	return getOne[model.DevicePairing](ctx, r.db, `
		SELECT * FROM device_pairings
		WHERE device_code_hash = $1
	`, hash)
}

func (r *devicePairingRepo) FindActiveByUserCode(ctx context.Context, userCode string) (*model.DevicePairing, error) {
	return getOne[model.DevicePairing](ctx, r.db, `
		SELECT * FROM device_pairings
		WHERE user_code = $1
		AND status IN ('pending', 'linked')
		AND expires_at > NOW()
	`, userCode)
}

func (r *devicePairingRepo) Link(ctx context.Context, id string, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE device_pairings SET
			status = 'linked',
			user_id = $2,
			linked_at = $3
		WHERE id = $1 AND status = 'pending' AND expires_at > NOW()
	`, id, userID, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *devicePairingRepo) Consume(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE device_pairings SET
			status = 'expired',
			consumed_at = $2
		WHERE id = $1 AND status = 'linked'
	`, id, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *devicePairingRepo) DeleteExpired(ctx context.Context, retention time.Duration) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM device_pairings
		WHERE expires_at < $1
	`, time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
