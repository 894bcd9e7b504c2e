package domain

// KeyPrefix namespaces every georag key in the shared store.
const KeyPrefix = "georag:"
