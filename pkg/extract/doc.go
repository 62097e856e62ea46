// Package extract recovers speaker turns from a generateContent response.
//
// Models are unreliable JSON emitters: the array of turns may arrive
// wrapped in Markdown code fences, preceded by commentary, or broken.
// Extraction locates the generated text in the response document, applies
// cleanup stages from the most specific (balanced fences) to the most
// permissive (whole-text parse), validates the recovered elements, and
// falls back to a single sentinel turn when nothing usable remains.
// Every function here is pure: the same input always yields the same output.
package extract
