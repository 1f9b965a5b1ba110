package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoOpenPosition      = errors.New("no open position")
	ErrPositionExists      = errors.New("position already open for asset")
	ErrUnknownAsset        = errors.New("unknown asset")
	ErrUnauthorized        = errors.New("unauthorized")
)
