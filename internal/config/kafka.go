package config

type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`
	UsageTopic string   `yaml:"usage_topic"`
	UsageGroup string   `yaml:"usage_group"`
}

func loadKafkaConfig() *KafkaConfig {
	return &KafkaConfig{
		Brokers:    getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
		UsageTopic: getEnv("KAFKA_USAGE_TOPIC", "price-rule-usage"),
		UsageGroup: getEnv("KAFKA_USAGE_GROUP", "price-rule-usage-consumer"),
	}
}
