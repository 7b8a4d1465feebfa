package model

import "errors"

var (
	// ErrUnboundParam is returned when reading a parameter value before the
	// abstract model is instantiated. Constraint rules must reference
	// parameters symbolically (Expr/At) instead of branching on their values.
	ErrUnboundParam = errors.New("parameter is not bound until the model is instantiated")

	// ErrUnboundSet is the set analog of ErrUnboundParam.
	ErrUnboundSet = errors.New("set membership is not bound until the model is instantiated")

	// ErrNoValue is returned when reading a variable that has not been
	// assigned a value yet.
	ErrNoValue = errors.New("variable has no value")

	// ErrDuplicateComponent is returned when attaching a component whose name
	// is already taken on the model.
	ErrDuplicateComponent = errors.New("component name already in use")

	// ErrAlreadyInstantiated is returned when instantiating a model twice or
	// marking a concrete model instantiated.
	ErrAlreadyInstantiated = errors.New("model is already instantiated")

	// ErrMissingData is returned at instantiation when neither the data store
	// nor the component's declaration provides a value.
	ErrMissingData = errors.New("no data provided for component")

	// ErrFixed is returned when assigning to a fixed variable.
	ErrFixed = errors.New("variable is fixed")
)
