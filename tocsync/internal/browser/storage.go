package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
)

// LocalStorage is a prefs.Store over the tab's window.localStorage, so
// preferences are scoped to the page origin like any site setting.
type LocalStorage struct {
	page *rod.Page
}

// NewLocalStorage returns a store bound to tab.
func NewLocalStorage(tab *Tab) *LocalStorage {
	return &LocalStorage{page: tab.Page}
}

func (s *LocalStorage) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := s.page.Context(ctx).Eval(`(k) => JSON.stringify({ v: window.localStorage.getItem(k) })`, key)
	if err != nil {
		return "", false, fmt.Errorf("browser: localStorage get %s: %w", key, err)
	}
	var r struct {
		V *string `json:"v"`
	}
	if err := json.Unmarshal([]byte(res.Value.Str()), &r); err != nil {
		return "", false, fmt.Errorf("browser: localStorage get %s: decode: %w", key, err)
	}
	if r.V == nil {
		return "", false, nil
	}
	return *r.V, true, nil
}

func (s *LocalStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.page.Context(ctx).Eval(`(k, v) => { window.localStorage.setItem(k, v); }`, key, value)
	if err != nil {
		return fmt.Errorf("browser: localStorage set %s: %w", key, err)
	}
	return nil
}
