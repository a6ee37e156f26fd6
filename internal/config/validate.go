package config

import "fmt"

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"download.timeout_seconds": c.Download.TimeoutSeconds,
		"jobs.ttl_seconds":         c.Jobs.TTLSeconds,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.SimilarityThreshold < 1 || c.Matching.SimilarityThreshold > 100 {
		return fmt.Errorf("matching.similarity_threshold must be between 1 and 100")
	}
	return ensurePositiveMap(map[string]int{
		"matching.name_distance_limit":  c.Matching.NameDistanceLimit,
		"matching.email_distance_limit": c.Matching.EmailDistanceLimit,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
