package service

// PipelineInstruction es la instruccion fija enviada junto a cada solicitud. Describe las cuatro
// etapas y el schema exacto que el validador exige.
const PipelineInstruction = `Analyze the provided health lifestyle survey (it might be an image of a form or raw text).
Perform the following 4 steps in a single response and return ONLY one JSON object.

Step 1: OCR/Text Parsing
Extract fields: age (number), smoker (boolean), exercise (string), diet (string). Keep any other answers as extra keys.
List every missing field in "missing_fields". Estimate "confidence" between 0.0 and 1.0.
If more than 2 of the 4 key fields (age, smoker, exercise, diet) are missing, set status to "incomplete_profile",
give a "reason", and STOP: omit "factors", "classification" and "final" entirely.
Otherwise set status to "ok" and do not include "reason".

Step 2: Factor Extraction
Convert the parsed answers into distinct short risk factor labels (e.g. "smoking", "poor diet", "sedentary lifestyle").
Include a "confidence" between 0.0 and 1.0.

Step 3: Risk Classification
Compute an integer "score" from 0 to 100 using non-diagnostic heuristic scoring and a "risk_level" using these fixed bands:
low = 0-33, medium = 34-66, high = 67-100. Provide a "rationale" list.

Step 4: Recommendations
Generate 3 to 5 actionable, non-diagnostic wellness recommendations. Repeat the same "risk_level" and the factors.
Set "status" to "ok", or "error" if recommendations could not be produced.

Never include a later step unless every earlier step is present.

Output schema:
{
  "parsing": {
    "answers": {"age": 42, "smoker": true, "exercise": "rarely", "diet": "high sugar"},
    "missing_fields": [],
    "confidence": 0.95,
    "status": "ok" | "incomplete_profile",
    "reason": "only when incomplete_profile"
  },
  "factors": {"factors": ["smoking"], "confidence": 0.9},
  "classification": {"risk_level": "low" | "medium" | "high", "score": 72, "rationale": ["..."]},
  "final": {"risk_level": "low" | "medium" | "high", "factors": ["smoking"], "recommendations": ["...", "...", "..."], "status": "ok" | "error"}
}`
