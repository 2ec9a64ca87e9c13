package repository

import (
	"context"
	"database/sql"
	"errors"

	"chall_zone/internal/common"
	"chall_zone/internal/domain/model"
)

func (r *Repository) CreateAsset(ctx context.Context, filename string, value []byte) (int64, error) {
	if value == nil {
		value = []byte{}
	}
	var id int64
	if err := r.scanOne(ctx, stmtCreateAsset, []any{filename, value}, &id); err != nil {
		return 0, storageErr(stmtCreateAsset, err)
	}
	return id, nil
}

func (r *Repository) GetAsset(ctx context.Context, id int64) (*model.Asset, error) {
	a := &model.Asset{ID: id}
	if err := r.scanOne(ctx, stmtGetAsset, []any{id}, &a.Filename, &a.Value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFound(common.EntityAsset, id)
		}
		return nil, storageErr(stmtGetAsset, err)
	}
	return a, nil
}

func (r *Repository) DeleteAsset(ctx context.Context, id int64) error {
	return r.execAffecting(ctx, stmtDeleteAsset, common.EntityAsset, id, id)
}

func (r *Repository) GetCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.query(ctx, stmtGetCategories)
	if err != nil {
		return nil, storageErr(stmtGetCategories, err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, storageErr(stmtGetCategories, err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(stmtGetCategories, err)
	}
	return categories, nil
}

func (r *Repository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, stmtCategoryExists, id)
}
