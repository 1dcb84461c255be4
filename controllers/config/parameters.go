package config

import "reflect"

const MinMergeTimeoutSeconds = 90

type Parameters struct {
	ElasticSearchURL      Parameter
	ElasticSearchUsername Parameter
	ElasticSearchPassword Parameter
	ElasticSearchInsecure Parameter
	IndexPrefix           Parameter
	DaysToKeep            Parameter
	MinIndexesToKeep      Parameter
	MergeTimeoutSeconds   Parameter
	RequestTimeoutSeconds Parameter
	BulkTimeoutSeconds    Parameter
	BulkBatchSize         Parameter
	MaxErrorRatio         Parameter
	CleanupSchedule       Parameter
	MetricsAddress        Parameter
	DatabaseURL           Parameter
	DocumentQuery         Parameter
	DocumentType          Parameter
	LogFile               Parameter
}

func NewConfiguration() Parameters {
	return Parameters{
		ElasticSearchURL: Parameter{
			Key:          "ElasticSearchURL",
			Flag:         "es-url",
			Usage:        "URL of the search cluster",
			DefaultValue: "http://localhost:9200",
			Type:         reflect.String,
		},
		ElasticSearchUsername: Parameter{
			Key:          "ElasticSearchUsername",
			Flag:         "es-username",
			DefaultValue: "",
			Type:         reflect.String,
		},
		ElasticSearchPassword: Parameter{
			Key:          "ElasticSearchPassword",
			DefaultValue: "",
			Type:         reflect.String,
		},
		ElasticSearchInsecure: Parameter{
			Key:          "ElasticSearchInsecure",
			Flag:         "es-insecure",
			Usage:        "skip TLS certificate verification",
			DefaultValue: false,
			Type:         reflect.Bool,
		},
		IndexPrefix: Parameter{
			Key:          "IndexPrefix",
			Flag:         "prefix",
			Usage:        "index prefix, also the name of the alias",
			DefaultValue: "",
			Type:         reflect.String,
		},
		DaysToKeep: Parameter{
			Key:          "DaysToKeep",
			Flag:         "days-to-keep",
			DefaultValue: 5,
			Type:         reflect.Int,
		},
		MinIndexesToKeep: Parameter{
			Key:          "MinIndexesToKeep",
			DefaultValue: 0,
			Type:         reflect.Int,
		},
		MergeTimeoutSeconds: Parameter{
			Key:          "MergeTimeoutSeconds",
			DefaultValue: 120,
			Type:         reflect.Int,
		},
		RequestTimeoutSeconds: Parameter{
			Key:          "RequestTimeoutSeconds",
			DefaultValue: 60,
			Type:         reflect.Int,
		},
		BulkTimeoutSeconds: Parameter{
			Key:          "BulkTimeoutSeconds",
			DefaultValue: 60,
			Type:         reflect.Int,
		},
		BulkBatchSize: Parameter{
			Key:          "BulkBatchSize",
			Flag:         "batch-size",
			DefaultValue: 500,
			Type:         reflect.Int,
		},
		MaxErrorRatio: Parameter{
			Key:          "MaxErrorRatio",
			DefaultValue: 0.0,
			Type:         reflect.Float64,
		},
		CleanupSchedule: Parameter{
			Key:          "CleanupSchedule",
			Flag:         "schedule",
			Usage:        "cron expression of the retention sweep",
			DefaultValue: "@daily",
			Type:         reflect.String,
		},
		MetricsAddress: Parameter{
			Key:          "MetricsAddress",
			Flag:         "metrics-address",
			DefaultValue: ":8084",
			Type:         reflect.String,
		},
		DatabaseURL: Parameter{
			Key:          "DatabaseURL",
			DefaultValue: "",
			Type:         reflect.String,
		},
		DocumentQuery: Parameter{
			Key:          "DocumentQuery",
			DefaultValue: "",
			Type:         reflect.String,
		},
		DocumentType: Parameter{
			Key:          "DocumentType",
			DefaultValue: "",
			Type:         reflect.String,
		},
		LogFile: Parameter{
			Key:          "LogFile",
			DefaultValue: "",
			Type:         reflect.String,
		},
	}
}
