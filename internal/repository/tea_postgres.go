package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"teahouse/internal/model"
)

type PostgresTeaRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTeaRepository(pool *pgxpool.Pool) *PostgresTeaRepository {
	return &PostgresTeaRepository{pool: pool}
}

func (r *PostgresTeaRepository) Create(ctx context.Context, input model.TeaInput) (model.Tea, error) {
	var t model.Tea
	err := r.pool.QueryRow(ctx,
		`INSERT INTO teas (name, price) VALUES ($1, $2) RETURNING id, name, price`,
		input.Name, input.Price).
		Scan(&t.ID, &t.Name, &t.Price)
	if err != nil {
		return model.Tea{}, fmt.Errorf("create tea: %w", err)
	}
	return t, nil
}

func (r *PostgresTeaRepository) List(ctx context.Context) ([]model.Tea, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, price FROM teas ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list teas: %w", err)
	}
	defer rows.Close()

	teas := make([]model.Tea, 0)
	for rows.Next() {
		var t model.Tea
		if err := rows.Scan(&t.ID, &t.Name, &t.Price); err != nil {
			return nil, fmt.Errorf("scan tea: %w", err)
		}
		teas = append(teas, t)
	}
	return teas, rows.Err()
}

func (r *PostgresTeaRepository) FindByID(ctx context.Context, id int) (model.Tea, error) {
	var t model.Tea
	err := r.pool.QueryRow(ctx, `SELECT id, name, price FROM teas WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Tea{}, model.ErrTeaNotFound
	}
	if err != nil {
		return model.Tea{}, fmt.Errorf("find tea by id: %w", err)
	}
	return t, nil
}

func (r *PostgresTeaRepository) Update(ctx context.Context, id int, input model.TeaInput) (model.Tea, error) {
	var t model.Tea
	err := r.pool.QueryRow(ctx,
		`UPDATE teas SET name = $2, price = $3, updated_at = now()
		 WHERE id = $1 RETURNING id, name, price`,
		id, input.Name, input.Price).
		Scan(&t.ID, &t.Name, &t.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Tea{}, model.ErrTeaNotFound
	}
	if err != nil {
		return model.Tea{}, fmt.Errorf("update tea: %w", err)
	}
	return t, nil
}

func (r *PostgresTeaRepository) Delete(ctx context.Context, id int) (model.Tea, error) {
	var t model.Tea
	err := r.pool.QueryRow(ctx,
		`DELETE FROM teas WHERE id = $1 RETURNING id, name, price`, id).
		Scan(&t.ID, &t.Name, &t.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Tea{}, model.ErrTeaNotFound
	}
	if err != nil {
		return model.Tea{}, fmt.Errorf("delete tea: %w", err)
	}
	return t, nil
}
