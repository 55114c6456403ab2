// Package domain models the inputs, outputs and error taxonomy of the Fire
// Weather Index (FWI) prediction pipeline.
//
// # Inputs
//
// Every model was fitted on the same nine columns of the Algerian forest
// fires dataset, in this order:
//
//	Temperature  noon temperature, °C            [-60, 60]
//	RH           relative humidity, %             [0, 100]
//	Ws           wind speed, km/h                 [0, 200]
//	Rain         daily rain, mm                   [0, 500]
//	FFMC         Fine Fuel Moisture Code          [0, 101]
//	DMC          Duff Moisture Code               [0, 1000]
//	ISI          Initial Spread Index             [0, 200]
//	Classes      0 = not fire, 1 = fire           {0, 1}
//	Region       0 = Bejaia, 1 = Sidi Bel-abbes   {0, 1}
//
// The order is positional: the scaler and the models only see a slice of
// floats, so a swapped column silently produces a wrong FWI instead of an
// error. [FeatureNames] is the single source of truth and every artifact is
// checked against it when it is loaded.
//
// The upper bounds on open-ended quantities (wind, rain, DMC, ISI) are well
// beyond anything observed in the training data; they only exist to reject
// typos and unit mix-ups.
//
// # Risk levels
//
// The FWI is mapped onto four half-open brackets. A value equal to a
// threshold belongs to the higher bracket:
//
//	FWI < 5          Low
//	5 <= FWI < 30    Moderate
//	30 <= FWI < 80   High
//	FWI >= 80        Extreme
//
// # Errors
//
// [ValidationError] and [UnknownModelError] are caller mistakes and carry
// enough detail to render a message. [InferenceError] wraps a failure raised
// by a model; the computation is deterministic so it is never retried.
// [ArtifactLoadError] only happens at startup and aborts it.
package domain
