// Package did parses decentralized identifiers and verifies the DID documents
// they resolve to.
//
// Verifier runs five checks in a fixed order and always reports all of them:
// resolution, structure, identity_match, key_material and jsonld_validity.
// A DID whose method has no registered MethodVerifier is rejected with
// MethodNotSupportedError before any network call.
package did
