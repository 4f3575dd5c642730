// Bootstraps the FinPulse BigQuery dataset: creates the dataset and the
// transactions, accounts and sync_state tables if they do not exist.
// Idempotent; safe to run repeatedly.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
)

var (
	projectID = flag.String("project", "", "GCP project ID (required)")
	datasetID = flag.String("dataset", "finpulse", "BigQuery dataset ID")
	location  = flag.String("location", "US", "Dataset location")
)

var tables = map[string]bigquery.Schema{
	"transactions": {
		{Name: "transaction_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "user_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "account_id", Type: bigquery.StringFieldType},
		{Name: "transaction_date", Type: bigquery.DateFieldType, Required: true},
		{Name: "amount", Type: bigquery.FloatFieldType, Required: true},
		{Name: "raw_name", Type: bigquery.StringFieldType, Required: true},
		{Name: "merchant_name", Type: bigquery.StringFieldType},
		{Name: "pending", Type: bigquery.BooleanFieldType},
		{Name: "categories", Type: bigquery.StringFieldType, Repeated: true},
		{Name: "location", Type: bigquery.StringFieldType},
		{Name: "payment_channel", Type: bigquery.StringFieldType},
		{Name: "updated_ts", Type: bigquery.TimestampFieldType},
	},
	"accounts": {
		{Name: "account_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "user_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "account_name", Type: bigquery.StringFieldType},
		{Name: "account_type", Type: bigquery.StringFieldType},
		{Name: "subtype", Type: bigquery.StringFieldType},
		{Name: "mask", Type: bigquery.StringFieldType},
		{Name: "balance_current", Type: bigquery.FloatFieldType},
		{Name: "balance_available", Type: bigquery.FloatFieldType},
		{Name: "currency", Type: bigquery.StringFieldType},
		{Name: "updated_ts", Type: bigquery.TimestampFieldType},
	},
	"sync_state": {
		{Name: "user_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "access_token", Type: bigquery.StringFieldType},
		{Name: "cursor", Type: bigquery.StringFieldType},
		{Name: "updated_ts", Type: bigquery.TimestampFieldType},
	},
}

func main() {
	flag.Parse()

	if *projectID == "" {
		log.Fatal("Error: -project flag is required. Please specify your GCP project ID.")
	}

	ctx := context.Background()
	client, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatalf("Failed to create BigQuery client: %v", err)
	}
	defer client.Close()

	dataset := client.Dataset(*datasetID)
	if err := dataset.Create(ctx, &bigquery.DatasetMetadata{Location: *location}); err != nil {
		if !alreadyExists(err) {
			log.Fatalf("Failed to create dataset %s: %v", *datasetID, err)
		}
		log.Printf("Dataset %s already exists", *datasetID)
	} else {
		log.Printf("Created dataset %s", *datasetID)
	}

	for name, schema := range tables {
		table := dataset.Table(name)
		if err := table.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
			if !alreadyExists(err) {
				log.Fatalf("Failed to create table %s: %v", name, err)
			}
			log.Printf("Table %s already exists", name)
			continue
		}
		log.Printf("Created table %s", name)
	}

	log.Println("Schema bootstrap complete")
}

func alreadyExists(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusConflict
	}
	return false
}
