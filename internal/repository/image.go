package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrImageLimit    = errors.New("image quota exceeded")
	ErrImageNotFound = errors.New("image not found")
)

// ImageQuota caps how many custom images a single player may keep.
const ImageQuota = 7

type ImageInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Image struct {
	ID       int64
	PlayerID *int64
	Name     string
	Mime     string
	Hash     string
	Data     []byte
}

// SaveImage stores an uploaded image for a player. It reports duplicate =
// true (and returns the existing row's id) when the player already owns an
// image with the same hash, and ErrImageLimit when the player is at quota.
func (q *Queries) SaveImage(
	ctx context.Context, img *Image,
) (duplicate bool, err error) {
	var count int
	err = q.db.QueryRow(ctx, `
		SELECT count(*)::int FROM user_images WHERE player_id = $1;`,
		img.PlayerID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	if count >= ImageQuota {
		return false, ErrImageLimit
	}

	err = q.db.QueryRow(ctx, `
		INSERT INTO user_images (player_id, image_name, mime_type, image_hash, image_data)
		VALUES (@player_id, @image_name, @mime_type, @image_hash, @image_data)
		RETURNING image_id;`,
		pgx.NamedArgs{
			"player_id":  img.PlayerID,
			"image_name": img.Name,
			"mime_type":  img.Mime,
			"image_hash": img.Hash,
			"image_data": img.Data,
		},
	).Scan(&img.ID)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		err = q.db.QueryRow(ctx, `
			SELECT image_id FROM user_images
			WHERE coalesce(player_id, 0) = coalesce($1, 0) AND image_hash = $2;`,
			img.PlayerID, img.Hash,
		).Scan(&img.ID)
		return true, err
	}
	return false, err
}

// GetImage fetches an image a player may use: either one of their own or a
// default (unowned) one.
func (q *Queries) GetImage(
	ctx context.Context, playerID, imageID int64,
) (*Image, error) {
	var img Image
	err := q.db.QueryRow(ctx, `
		SELECT image_id, player_id, image_name, mime_type, image_hash, image_data
		FROM user_images
		WHERE image_id = $1 AND (player_id IS NULL OR player_id = $2);`,
		imageID, playerID,
	).Scan(&img.ID, &img.PlayerID, &img.Name, &img.Mime, &img.Hash, &img.Data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (q *Queries) ListDefaultImages(ctx context.Context) ([]ImageInfo, error) {
	rows, _ := q.db.Query(ctx, `
		SELECT image_id id, image_name name
		FROM user_images
		WHERE player_id IS NULL
		ORDER BY image_id;`,
	)
	return pgx.CollectRows(rows, pgx.RowToStructByName[ImageInfo])
}

func (q *Queries) ListPlayerImages(
	ctx context.Context, playerID int64,
) ([]ImageInfo, error) {
	rows, _ := q.db.Query(ctx, `
		SELECT image_id id, image_name name
		FROM user_images
		WHERE player_id = $1
		ORDER BY image_id;`,
		playerID,
	)
	return pgx.CollectRows(rows, pgx.RowToStructByName[ImageInfo])
}

// DeleteImage removes one of the player's own images. Default images
// cannot be deleted.
func (q *Queries) DeleteImage(
	ctx context.Context, playerID, imageID int64,
) error {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM user_images
		WHERE image_id = $1 AND player_id = $2;`,
		imageID, playerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}
