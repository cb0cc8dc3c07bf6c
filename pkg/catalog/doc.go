// Package catalog synchronizes provider model catalogs into the registry.
//
// A Fetcher lists the models a provider currently serves. The Ingester
// maps native identifiers onto canonical models through a Normalizer,
// upserts bindings and pricing, and disables bindings whose native model
// disappeared upstream. The Scheduler runs periodic sync passes on a cron
// schedule.
package catalog
