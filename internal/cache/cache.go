// Package cache implements the tiered download_repos/upload_repo client:
// local filesystem, HTTP(S) HEAD-then-GET, and s3:// probing/fetch/publish,
// plus SCP publish for non-scheme upload_repo destinations.
//
// Grounded on the teacher's fetch.go (newHttpClient, tryRemoveCachedFile
// flock idiom), upload.go, and r2.go (generalized from Cloudflare R2 to
// plain S3, SPEC_FULL §11.4).
package cache

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/scratchkit/skw/internal/skwerr"
)

// Scheme identifies how a download_repos/upload_repo URI is handled.
type Scheme int

const (
	SchemeLocal Scheme = iota
	SchemeHTTP
	SchemeS3
	SchemeSCP
)

func classify(uri string) Scheme {
	switch {
	case strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://"):
		return SchemeHTTP
	case strings.HasPrefix(uri, "s3://"):
		return SchemeS3
	case strings.Contains(uri, ":") && !strings.HasPrefix(uri, "/"):
		return SchemeSCP
	default:
		return SchemeLocal
	}
}

// Client fetches and publishes package archives against a tiered list of
// repositories.
type Client struct {
	HTTP *http.Client
	S3   *s3.Client
}

// New builds a Client with a bounded-timeout HTTP client, matching the
// teacher's newHttpClient hardened-transport pattern (minus the embedded
// custom CA bundle, which a generic builder has no fixed vendor to pin).
func New(ctx context.Context) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSHandshakeTimeout = 30 * time.Second
	httpClient := &http.Client{Transport: transport, Timeout: 120 * time.Second}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			os.Getenv("SKW_S3_ACCESS_KEY_ID"), os.Getenv("SKW_S3_SECRET_ACCESS_KEY"), "")),
	)
	var s3Client *s3.Client
	if err == nil {
		s3Client = s3.NewFromConfig(cfg)
	}
	return &Client{HTTP: httpClient, S3: s3Client}, nil
}

// Probe tests whether repoURI/name exists, per spec §4.3 step 4: HTTP HEAD
// for http(s), filesystem stat for local, S3 HeadObject for s3://.
func (c *Client) Probe(ctx context.Context, repoURI, name string) (bool, error) {
	switch classify(repoURI) {
	case SchemeHTTP:
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, strings.TrimRight(repoURI, "/")+"/"+name, nil)
		if err != nil {
			return false, err
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return false, nil // HEAD failure on this tier is a miss, not fatal
		}
		defer resp.Body.Close()
		return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
	case SchemeS3:
		bucket, key := splitS3(repoURI, name)
		if c.S3 == nil {
			return false, nil
		}
		_, err := c.S3.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &bucket, Key: &key})
		return err == nil, nil
	default:
		_, err := os.Stat(filepath.Join(repoURI, name))
		return err == nil, nil
	}
}

// Fetch downloads repoURI/name into destPath, failing fatally with
// RepoUnreachable for an HTTP GET failure after a successful HEAD (spec §7).
// When attached to a terminal, progress is rendered via progressbar.
func (c *Client) Fetch(ctx context.Context, repoURI, name, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	switch classify(repoURI) {
	case SchemeHTTP:
		url := strings.TrimRight(repoURI, "/") + "/" + name
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return skwerr.Wrap(skwerr.RepoUnreachable, err, "GET %s", url)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return skwerr.New(skwerr.RepoUnreachable, "GET %s: status %d", url, resp.StatusCode)
		}
		out, err := os.Create(destPath)
		if err != nil {
			return err
		}
		defer out.Close()
		return copyWithProgress(out, resp.Body, resp.ContentLength, name)
	case SchemeS3:
		bucket, key := splitS3(repoURI, name)
		obj, err := c.S3.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
		if err != nil {
			return skwerr.Wrap(skwerr.RepoUnreachable, err, "s3 GetObject %s/%s", bucket, key)
		}
		defer obj.Body.Close()
		out, err := os.Create(destPath)
		if err != nil {
			return err
		}
		defer out.Close()
		return copyWithProgress(out, obj.Body, -1, name)
	default:
		return copyLocal(filepath.Join(repoURI, name), destPath)
	}
}

func copyWithProgress(dst io.Writer, src io.Reader, size int64, label string) error {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		_, err := io.Copy(dst, src)
		return err
	}
	bar := progressbar.DefaultBytes(size, "fetching "+label)
	_, err := io.Copy(io.MultiWriter(dst, bar), src)
	return err
}

func copyLocal(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

// Publish copies archivePath and metaPath to repo per spec §4.3
// "Publishing": local copy, SCP, or S3; HTTP(S) is rejected outright.
func (c *Client) Publish(ctx context.Context, repo, archivePath, metaPath string) error {
	switch classify(repo) {
	case SchemeHTTP:
		return skwerr.New(skwerr.UploadRejected, "upload_repo %s: HTTP(S) uploads are rejected", repo)
	case SchemeSCP:
		dest := strings.TrimRight(repo, "/")
		for _, p := range []string{archivePath, metaPath} {
			if err := exec.CommandContext(ctx, "scp", p, dest+"/").Run(); err != nil {
				return skwerr.Wrap(skwerr.ExternalToolFailed, err, "scp %s to %s", p, repo)
			}
		}
		return nil
	case SchemeS3:
		bucket, prefix := splitS3(repo, "")
		for _, p := range []string{archivePath, metaPath} {
			if err := c.putS3(ctx, bucket, prefix+filepath.Base(p), p); err != nil {
				return skwerr.Wrap(skwerr.ExternalToolFailed, err, "s3 put %s", p)
			}
		}
		return nil
	default:
		if err := os.MkdirAll(repo, 0o755); err != nil {
			return err
		}
		for _, p := range []string{archivePath, metaPath} {
			if err := copyLocal(p, filepath.Join(repo, filepath.Base(p))); err != nil {
				return err
			}
		}
		return nil
	}
}

func (c *Client) putS3(ctx context.Context, bucket, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = c.S3.PutObject(ctx, &s3.PutObjectInput{Bucket: &bucket, Key: &key, Body: f})
	return err
}

// splitS3 splits an "s3://bucket/prefix" URI and joins name onto its key.
func splitS3(uri, name string) (bucket, key string) {
	rest := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	bucket = parts[0]
	prefix := ""
	if len(parts) > 1 {
		prefix = strings.TrimRight(parts[1], "/") + "/"
	}
	return bucket, prefix + name
}
