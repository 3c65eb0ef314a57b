package models

import "time"

// StyleInfo represents metadata about a stored QML style document.
type StyleInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Source      string    `json:"source"` // name of the uploaded dump
	Size        int64     `json:"size"`
	SymbolCount int       `json:"symbolCount"`
	CreatedAt   time.Time `json:"createdAt"`
}
