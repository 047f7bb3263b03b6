// Package ui renders console progress for sentinelfetch and sends the
// optional desktop notification when a run completes.
package ui
