package regions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"Popmap_discord_bot/internal/utils"
)

const (
	// DefaultDatasetURL Natural Earth 1:110m 国境データ（pop_est を含む）
	DefaultDatasetURL = "https://raw.githubusercontent.com/nvkelso/natural-earth-vector/master/geojson/ne_110m_admin_0_countries.geojson"

	datasetFetchTimeout = 30 * time.Second
	datasetMaxBytes     = 64 * 1024 * 1024
	datasetUserAgent    = "PopmapDiscordBot/1.0"
)

var (
	// ErrStatus 2xx以外のHTTPステータス
	ErrStatus = errors.New("unexpected HTTP status")
	// ErrTooLarge 応答がMaxBytesを超えた
	ErrTooLarge = errors.New("region payload too large")
)

var datasetHTTPClient = &http.Client{
	Timeout: 40 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	},
}

// LoaderOptions Loaderの設定
type LoaderOptions struct {
	URL       string
	CachePath string // 空なら書き出さない
	Keys      PropertyKeys
	Limiter   *utils.RateLimiter
	Client    *http.Client
	MaxBytes  int64           // 0以下なら64MiB
	OnLoad    func(err error) // 取得・解析を実際に行ったときだけ呼ばれる
}

// Loader 地域データを一度だけ取得し、以降はメモリ上の結果を返す
type Loader struct {
	opts  LoaderOptions
	group singleflight.Group

	mu      sync.RWMutex
	dataset *Dataset
}

// NewLoader 新しいLoaderを作成
func NewLoader(opts LoaderOptions) *Loader {
	if opts.URL == "" {
		opts.URL = DefaultDatasetURL
	}
	if opts.Client == nil {
		opts.Client = datasetHTTPClient
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = datasetMaxBytes
	}
	return &Loader{opts: opts}
}

// Cached ロード済みならそのDatasetを返す
func (l *Loader) Cached() (*Dataset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dataset, l.dataset != nil
}

// Load データを取得して解析する。同時呼び出しは1回の取得を共有する。
// 取得は呼び出し元のキャンセルから切り離され、ctxが終わった呼び出し元だけが先に戻る。
// 失敗時は自動リトライしない（次のLoad呼び出しで再取得）
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	if ds, ok := l.Cached(); ok {
		return ds, nil
	}
	detached := context.WithoutCancel(ctx)
	ch := l.group.DoChan(l.opts.URL, func() (interface{}, error) {
		if ds, ok := l.Cached(); ok {
			return ds, nil
		}
		ds, err := l.load(detached)
		if l.opts.OnLoad != nil {
			l.opts.OnLoad(err)
		}
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.dataset = ds
		l.mu.Unlock()
		return ds, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dataset), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) load(ctx context.Context) (*Dataset, error) {
	data, fetchErr := l.fetch(ctx)
	if fetchErr != nil {
		cached, err := l.readCache()
		if err != nil {
			return nil, fetchErr
		}
		log.Printf("Region dataset fetch failed, using cache %s: %v", l.opts.CachePath, fetchErr)
		data = cached
	}

	ds, err := Parse(data, l.opts.Keys)
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: no polygon features", ErrMalformed)
	}
	log.Printf("Region dataset loaded: %d regions", ds.Len())

	if fetchErr == nil && l.opts.CachePath != "" {
		if err := utils.WriteFileAtomic(l.opts.CachePath, data); err != nil {
			log.Printf("Failed to write region dataset cache: %v", err)
		}
	}
	return ds, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, datasetFetchTimeout)
	defer cancel()

	doReq := func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.opts.URL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", datasetUserAgent)
		resp, err := l.opts.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP GET failed for %s: %w", l.opts.URL, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("%w: %s (URL: %s)", ErrStatus, resp.Status, l.opts.URL)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, l.opts.MaxBytes+1))
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > l.opts.MaxBytes {
			return nil, fmt.Errorf("%w: more than %d bytes from %s", ErrTooLarge, l.opts.MaxBytes, l.opts.URL)
		}
		return data, nil
	}

	var (
		val interface{}
		err error
	)
	if l.opts.Limiter != nil {
		val, err = l.opts.Limiter.Do(ctx, hostOf(l.opts.URL), doReq)
	} else {
		val, err = doReq()
	}
	if err != nil {
		return nil, err
	}
	data, ok := val.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response type for %s", l.opts.URL)
	}
	return data, nil
}

func (l *Loader) readCache() ([]byte, error) {
	if l.opts.CachePath == "" {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(l.opts.CachePath)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
