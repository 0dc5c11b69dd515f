package domain

// KeyPrefix namespaces all store keys and index names owned by this service.
const KeyPrefix = "tourvex:"
