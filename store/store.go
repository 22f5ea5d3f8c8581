package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"kit-telegram/models"
)

const timeLayout = "2006-01-02 15:04:05"

// Store owns the two flat JSON documents used as the datastore: the user
// ledger (paid_users.json) and the global asset cache (kit_assets.json).
// Every mutation is a full read-modify-write cycle under the mutex, finished
// by an atomic rename, so a crash mid-write never leaves a torn file.
type Store struct {
	mu         sync.Mutex
	dataDir    string
	usersPath  string
	assetsPath string
}

func New(dataDir, usersFile, assetsFile string) (*Store, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	if usersFile == "" {
		usersFile = filepath.Join(dataDir, "paid_users.json")
	}
	if assetsFile == "" {
		assetsFile = filepath.Join(dataDir, "kit_assets.json")
	}
	s := &Store{dataDir: dataDir, usersPath: usersFile, assetsPath: assetsFile}

	// Make sure both documents exist so backup always has something to pack.
	if _, err := os.Stat(s.usersPath); os.IsNotExist(err) {
		if err := writeJSONAtomic(s.usersPath, map[string]*models.UserRecord{}, false); err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(s.assetsPath); os.IsNotExist(err) {
		if err := writeJSONAtomic(s.assetsPath, map[string]*models.AssetEntry{}, false); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) UsersPath() string  { return s.usersPath }
func (s *Store) AssetsPath() string { return s.assetsPath }

// writeJSONAtomic writes v to path via a tmp file and rename. When keepBak
// is set the previous content survives as path+".bak".
func writeJSONAtomic(path string, v any, keepBak bool) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if keepBak {
		if prev, err := os.ReadFile(path); err == nil {
			_ = os.WriteFile(path+".bak", prev, 0o644)
		}
	}
	return os.Rename(tmp, path)
}

// loadUsersLocked reads the ledger. A missing or unreadable document is
// treated as empty so the store self-heals on the next write.
func (s *Store) loadUsersLocked() map[string]*models.UserRecord {
	users := map[string]*models.UserRecord{}
	data, err := os.ReadFile(s.usersPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", s.usersPath).Msg("users read failed, treating as empty")
		}
		return users
	}
	if err := json.Unmarshal(data, &users); err != nil {
		log.Warn().Err(err).Str("path", s.usersPath).Msg("users parse failed, treating as empty")
		return map[string]*models.UserRecord{}
	}
	for id, rec := range users {
		if rec == nil {
			delete(users, id)
			continue
		}
		if rec.Cache == nil {
			rec.Cache = map[string]string{}
		}
		if rec.Username == "" {
			rec.Username = "unknown"
		}
	}
	return users
}

func (s *Store) saveUsersLocked(users map[string]*models.UserRecord) error {
	return writeJSONAtomic(s.usersPath, users, false)
}

func key(userID int64) string { return strconv.FormatInt(userID, 10) }

// Users returns a snapshot of the whole ledger.
func (s *Store) Users() map[string]*models.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadUsersLocked()
}

// User returns one ledger record.
func (s *Store) User(userID int64) (*models.UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.loadUsersLocked()[key(userID)]
	return rec, ok
}

// SavePending records a user that started the payment flow but is not yet
// approved. An existing record keeps its verification state and cache.
func (s *Store) SavePending(userID int64, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.loadUsersLocked()
	rec, ok := users[key(userID)]
	if !ok {
		rec = &models.UserRecord{Cache: map[string]string{}}
		users[key(userID)] = rec
	}
	if username != "" {
		rec.Username = username
	} else if rec.Username == "" {
		rec.Username = "unknown"
	}
	return s.saveUsersLocked(users)
}

// MarkVerified flips the record to verified and stamps the purchase date.
// Re-approving an already verified user just refreshes the stamp source
// fields and stays idempotent.
func (s *Store) MarkVerified(userID int64, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.loadUsersLocked()
	rec, ok := users[key(userID)]
	if !ok {
		rec = &models.UserRecord{Cache: map[string]string{}}
		users[key(userID)] = rec
	}
	if username != "" {
		rec.Username = username
	} else if rec.Username == "" {
		rec.Username = "unknown"
	}
	rec.Verified = true
	if rec.PurchaseDate == "" {
		rec.PurchaseDate = time.Now().Format(timeLayout)
	}
	return s.saveUsersLocked(users)
}

func (s *Store) IsVerified(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.loadUsersLocked()[key(userID)]
	return ok && rec.Verified
}

// RemoveUser deletes the whole record. Returns false when absent.
func (s *Store) RemoveUser(userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.loadUsersLocked()
	if _, ok := users[key(userID)]; !ok {
		return false, nil
	}
	delete(users, key(userID))
	return true, s.saveUsersLocked(users)
}

// Clear wipes the ledger. SnapshotUsers is expected to run first.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveUsersLocked(map[string]*models.UserRecord{})
}

// SnapshotUsers writes a timestamped copy of the ledger next to the data
// files, used as the automatic backup before a full clear.
func (s *Store) SnapshotUsers() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.loadUsersLocked()
	name := filepath.Join(s.dataDir, "paid_users_backup_"+time.Now().Format("20060102_150405")+".json")
	if err := writeJSONAtomic(name, users, false); err != nil {
		return "", err
	}
	return name, nil
}

// UserCache returns the per-user cached file_id for a logical cache key.
func (s *Store) UserCache(userID int64, cacheKey string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.loadUsersLocked()[key(userID)]
	if !ok {
		return ""
	}
	return rec.Cache[cacheKey]
}

// SetUserCache backfills the per-user file_id cache after a URL delivery.
func (s *Store) SetUserCache(userID int64, cacheKey, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.loadUsersLocked()
	rec, ok := users[key(userID)]
	if !ok {
		rec = &models.UserRecord{Username: "unknown", Cache: map[string]string{}}
		users[key(userID)] = rec
	}
	rec.Cache[cacheKey] = fileID
	return s.saveUsersLocked(users)
}

// DemoUsage returns the user's demo counters, zeroed when absent.
func (s *Store) DemoUsage(userID int64) models.DemoUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.loadUsersLocked()[key(userID)]
	if !ok || rec.DemoAI == nil {
		return models.DemoUsage{}
	}
	return *rec.DemoAI
}

func (s *Store) SaveDemoUsage(userID int64, usage models.DemoUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.loadUsersLocked()
	rec, ok := users[key(userID)]
	if !ok {
		rec = &models.UserRecord{Username: "unknown", Cache: map[string]string{}}
		users[key(userID)] = rec
	}
	rec.DemoAI = &usage
	return s.saveUsersLocked(users)
}

func (s *Store) loadAssetsLocked() map[string]*models.AssetEntry {
	assets := map[string]*models.AssetEntry{}
	data, err := os.ReadFile(s.assetsPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", s.assetsPath).Msg("assets read failed, treating as empty")
		}
		return assets
	}
	if err := json.Unmarshal(data, &assets); err != nil {
		log.Warn().Err(err).Str("path", s.assetsPath).Msg("assets parse failed, treating as empty")
		return map[string]*models.AssetEntry{}
	}
	for name, entry := range assets {
		if entry == nil || entry.FileID == "" {
			delete(assets, name)
		}
	}
	return assets
}

// AssetFileID returns the admin-bound file_id for a logical asset, or "".
func (s *Store) AssetFileID(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.loadAssetsLocked()[name]
	if !ok {
		return ""
	}
	return entry.FileID
}

// SetAssetFileID binds a file_id to a logical asset for all users.
func (s *Store) SetAssetFileID(name, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assets := s.loadAssetsLocked()
	assets[name] = &models.AssetEntry{
		FileID:    fileID,
		UpdatedAt: time.Now().Format(timeLayout),
	}
	return writeJSONAtomic(s.assetsPath, assets, false)
}

// Assets returns a snapshot of the asset cache.
func (s *Store) Assets() map[string]*models.AssetEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadAssetsLocked()
}
