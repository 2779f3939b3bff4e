// Package session persists the backend's session cookie between runs, so
// the saved selection follows the user from one invocation to the next.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexanderramin/sectors/internal/db"
	"github.com/sirupsen/logrus"
)

// Jar is an http.CookieJar backed by the cookies table. Cookies are scoped
// to the exact request host; Domain attributes are not widened.
type Jar struct {
	tx  db.TxRunner
	log logrus.FieldLogger
	now func() time.Time
}

var _ http.CookieJar = (*Jar)(nil)

// NewJar creates a jar over an opened database.
func NewJar(database *sql.DB, log logrus.FieldLogger) *Jar {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Jar{
		tx:  db.NewSQLiteTxRunner(database),
		log: log.WithField("component", "session"),
		now: time.Now,
	}
}

// SetCookies stores cookies received from u. Cookies that are already
// expired delete their stored counterpart. Expired rows are purged on every
// write.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	host := hostKey(u)
	now := j.now()
	err := j.tx.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		for _, c := range cookies {
			if err := j.store(ctx, tx, host, defaultPath(u, c.Path), c, now); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx,
			`DELETE FROM cookies WHERE expires_at IS NOT NULL AND expires_at <= ?`, now.Unix())
		if err != nil {
			return fmt.Errorf("purging expired cookies: %w", err)
		}
		return nil
	})
	if err != nil {
		j.log.WithError(err).WithField("host", host).Warn("storing session cookies failed")
	}
}

func (j *Jar) store(ctx context.Context, tx db.DBTX, host, path string, c *http.Cookie, now time.Time) error {
	expires, remove := expiry(c, now)
	if remove {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM cookies WHERE host = ? AND name = ? AND path = ?`, host, c.Name, path)
		if err != nil {
			return fmt.Errorf("deleting cookie %s: %w", c.Name, err)
		}
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO cookies (host, name, path, value, secure, http_only, same_site, expires_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(host, name, path) DO UPDATE SET
		   value = excluded.value,
		   secure = excluded.secure,
		   http_only = excluded.http_only,
		   same_site = excluded.same_site,
		   expires_at = excluded.expires_at,
		   updated_at = excluded.updated_at`,
		host, c.Name, path, c.Value, c.Secure, c.HttpOnly, sameSite(c.SameSite), expires, now.Unix())
	if err != nil {
		return fmt.Errorf("storing cookie %s: %w", c.Name, err)
	}
	return nil
}

// Cookies returns the unexpired cookies to send to u, longest path first.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	host := hostKey(u)
	now := j.now().Unix()
	rows, err := j.tx.Reader().QueryContext(context.Background(),
		`SELECT name, path, value, secure FROM cookies
		 WHERE host = ? AND (expires_at IS NULL OR expires_at > ?)
		 ORDER BY length(path) DESC, updated_at`, host, now)
	if err != nil {
		j.log.WithError(err).WithField("host", host).Warn("loading session cookies failed")
		return nil
	}
	defer rows.Close()

	reqPath := u.EscapedPath()
	if reqPath == "" {
		reqPath = "/"
	}
	var out []*http.Cookie
	for rows.Next() {
		var (
			name, path, value string
			secure            bool
		)
		if err := rows.Scan(&name, &path, &value, &secure); err != nil {
			j.log.WithError(err).Warn("scanning session cookie failed")
			return nil
		}
		if secure && u.Scheme != "https" {
			continue
		}
		if !pathMatch(path, reqPath) {
			continue
		}
		out = append(out, &http.Cookie{Name: name, Value: value})
	}
	if err := rows.Err(); err != nil {
		j.log.WithError(err).Warn("iterating session cookies failed")
		return nil
	}
	return out
}

// Clear forgets every stored cookie. The next request starts a new session.
func (j *Jar) Clear(ctx context.Context) (int64, error) {
	res, err := j.tx.Reader().ExecContext(ctx, `DELETE FROM cookies`)
	if err != nil {
		return 0, fmt.Errorf("clearing cookies: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cleared cookies: %w", err)
	}
	return n, nil
}

// Count returns the number of live cookies for the host of u.
func (j *Jar) Count(ctx context.Context, u *url.URL) (int, error) {
	var n int
	err := j.tx.Reader().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cookies WHERE host = ? AND (expires_at IS NULL OR expires_at > ?)`,
		hostKey(u), j.now().Unix()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting cookies: %w", err)
	}
	return n, nil
}

func hostKey(u *url.URL) string {
	return strings.ToLower(u.Host)
}

// expiry returns the unix expiry to store (nil for session cookies) and
// whether the cookie asks to be removed.
func expiry(c *http.Cookie, now time.Time) (any, bool) {
	switch {
	case c.MaxAge < 0:
		return nil, true
	case c.MaxAge > 0:
		return now.Add(time.Duration(c.MaxAge) * time.Second).Unix(), false
	case !c.Expires.IsZero():
		if !c.Expires.After(now) {
			return nil, true
		}
		return c.Expires.Unix(), false
	default:
		return nil, false
	}
}

// defaultPath implements the RFC 6265 default-path rule.
func defaultPath(u *url.URL, path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	p := u.EscapedPath()
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return "/"
	}
	return p[:i]
}

func pathMatch(cookiePath, reqPath string) bool {
	if cookiePath == reqPath {
		return true
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/'
}

func sameSite(s http.SameSite) string {
	switch s {
	case http.SameSiteLaxMode:
		return "lax"
	case http.SameSiteStrictMode:
		return "strict"
	case http.SameSiteNoneMode:
		return "none"
	default:
		return ""
	}
}
