package command

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/symmetree-labs/infinitree/backend"
	"github.com/symmetree-labs/infinitree/crypto"
	"github.com/symmetree-labs/infinitree/fields"
	"github.com/symmetree-labs/infinitree/tree"
)

// configFileName is looked up relative to the working directory, the
// same way the teacher's repository looked for a .git directory: every
// command in this package operates on whatever tree the nearest config
// describes.
const configFileName = ".infinitree.json"

// Config is the on-disk description of which backend and credentials a
// tree uses, the non-git-backed analogue of the teacher's Conf (which
// read "bits.*" keys out of `git config`). The backend, directory, S3
// and credential fields can each be overridden by an environment
// variable of the same name prefixed INFINITREE_, e.g.
// INFINITREE_USERNAME, so credentials need not be committed to the
// config file at all. The cache fields are read from the file only.
type Config struct {
	// Backend selects the storage implementation: "directory" or "s3".
	Backend string `json:"backend"`

	// Directory is the local path used when Backend is "directory".
	Directory string `json:"directory"`

	// S3Bucket/S3Domain/S3AccessKey/S3SecretKey configure Backend "s3".
	// Access/secret key default to the environment via the AWS SDK
	// convention (see backend.S3Config) when left empty.
	S3Bucket    string `json:"s3_bucket"`
	S3Domain    string `json:"s3_domain"`
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`

	// CacheDir, if set, write-through caches Backend through a local
	// backend.Cache of at most CacheLimitBytes.
	CacheDir        string `json:"cache_dir"`
	CacheLimitBytes int64  `json:"cache_limit_bytes"`

	// Username/Password derive the Argon2UserPass HeaderScheme that
	// locates and unlocks the tree.
	Username string `json:"username"`
	Password string `json:"password"`
}

func envOverride(dst *string, name string) {
	if v, ok := os.LookupEnv("INFINITREE_" + name); ok {
		*dst = v
	}
}

// LoadConfig reads configFileName from dir (the working directory if
// dir is empty), applying INFINITREE_* environment overrides on top.
// A missing config file is not an error: every field environment
// overrides can still populate.
func LoadConfig(dir string) (*Config, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("command: failed to get working directory: %w", err)
		}
		dir = wd
	}

	cfg := &Config{Backend: "directory", Directory: filepath.Join(dir, ".infinitree", "objects")}

	path := filepath.Join(dir, configFileName)
	if buf, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("command: failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("command: failed to read %s: %w", path, err)
	}

	envOverride(&cfg.Backend, "BACKEND")
	envOverride(&cfg.Directory, "DIRECTORY")
	envOverride(&cfg.S3Bucket, "S3_BUCKET")
	envOverride(&cfg.S3Domain, "S3_DOMAIN")
	envOverride(&cfg.S3AccessKey, "S3_ACCESS_KEY")
	envOverride(&cfg.S3SecretKey, "S3_SECRET_KEY")
	envOverride(&cfg.Username, "USERNAME")
	envOverride(&cfg.Password, "PASSWORD")

	return cfg, nil
}

// Save writes cfg back to configFileName in the working directory, the
// same location LoadConfig("") resolves.
func (cfg *Config) Save() error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("command: failed to get working directory: %w", err)
	}
	buf, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("command: failed to encode config: %w", err)
	}
	return os.WriteFile(filepath.Join(wd, configFileName), buf, 0o600)
}

// OpenBackend constructs the backend.Backend cfg describes, wrapping it
// in a backend.Cache when CacheDir is set.
func (cfg *Config) OpenBackend() (backend.Backend, error) {
	var base backend.Backend
	switch cfg.Backend {
	case "", "directory":
		dir, err := backend.NewDirectory(cfg.Directory)
		if err != nil {
			return nil, err
		}
		base = dir
	case "s3":
		s3, err := backend.NewS3(backend.S3Config{
			Domain:    cfg.S3Domain,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		base = s3
	default:
		return nil, fmt.Errorf("command: unknown backend %q", cfg.Backend)
	}

	if cfg.CacheDir == "" {
		return base, nil
	}

	return backend.NewCache(backend.CacheConfig{
		Upstream:   base,
		LocalDir:   cfg.CacheDir,
		DBPath:     filepath.Join(cfg.CacheDir, "cache.db"),
		LimitBytes: cfg.CacheLimitBytes,
	})
}

// HeaderScheme derives the Argon2UserPass locating and unlocking this
// tree's sealed header.
func (cfg *Config) HeaderScheme() crypto.HeaderScheme {
	return crypto.NewArgon2UserPass(cfg.Username, cfg.Password)
}

// OpenTree opens an existing tree described by cfg. The returned tree
// holds no user index fields -- this package only exercises tree-level
// metadata (commit history, object liveness), not any particular
// application's Index, which is out of this CLI's scope per the system
// it's shipped with.
func OpenTree(cfg *Config) (*tree.Infinitree, error) {
	be, err := cfg.OpenBackend()
	if err != nil {
		return nil, err
	}
	return tree.Open(be, fields.NewIndex(), cfg.HeaderScheme())
}

// CreateTree initializes a new, empty tree described by cfg.
func CreateTree(cfg *Config) (*tree.Infinitree, error) {
	be, err := cfg.OpenBackend()
	if err != nil {
		return nil, err
	}
	internal, err := crypto.GenerateSymmetric()
	if err != nil {
		return nil, fmt.Errorf("command: failed to generate convergence key: %w", err)
	}
	keying := crypto.Bind(cfg.HeaderScheme(), internal)
	return tree.Empty(be, fields.NewIndex(), keying), nil
}
