package domain

import "time"

// BackupVersion is the literal schema version carried by every backup.
const BackupVersion = "1.0.0"

// Backup is the envelope written by a full backup of the client set.
type Backup struct {
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
	TotalClients int       `json:"totalClients"`
	Data         []*Client `json:"data"`
}
