// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package disclosure turns rows of public disclosure datasets (payment
// registries, research funding trackers, bibliographic tables) into a
// graph of typed entities with deterministic ids.
//
// Ids are derived from normalized key fields only, so the same real-world
// party gets the same id on every row and every run, and sinks merge
// repeated emissions of an id instead of replacing them.
package disclosure
