// internal/loader/sample.go
package loader

import (
	"fmt"
	"os"
)

// sampleLog matches the detector's output format; used to seed a fresh
// deployment so the dashboard has something to show before the detector
// writes its first alert.
const sampleLog = `Timestamp,Sample Index,VAE Score,GNN Label
2025-04-09 16:25:26.985832,2,310.7619,1
2025-04-09 16:25:26.986833,3,310.91617,1
2025-04-09 16:25:26.988834,4,311.12512,1
2025-04-09 16:25:26.988834,5,311.36285,1
2025-04-09 16:25:26.989854,6,311.65887,1
2025-04-09 16:25:26.991138,7,311.98508,1
2025-04-09 16:29:57.548820,0,310.5807800292969,1
2025-04-09 16:29:58.552840,1,310.6549987792969,1
2025-04-09 16:29:59.558027,2,310.76190185546875,1
2025-04-09 16:30:00.561436,3,310.91619873046875,1
2025-04-09 16:30:01.637557,4,311.1253356933594,1
2025-04-09 16:30:02.643728,5,311.3636474609375,1
2025-04-09 16:30:03.647736,6,311.6578063964844,1
2025-04-09 16:41:31.674115,0,310.5807800292969,1
2025-04-09 16:41:32.676806,1,310.6549987792969,1
2025-04-09 16:41:33.689518,2,310.7618713378906,1
2025-04-09 16:41:34.693096,3,310.9161376953125,1
2025-04-09 16:41:35.695667,4,311.1254577636719,1
2025-04-09 16:41:36.697732,5,311.3625183105469,1
2025-04-09 16:41:37.700866,6,311.6585388183594,1
`

// SeedSampleData writes the sample log to path if no file exists there.
// An existing file, even an empty one, is left alone.
func SeedSampleData(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking alert log: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleLog), 0o644); err != nil {
		return fmt.Errorf("seeding alert log: %w", err)
	}
	return nil
}
