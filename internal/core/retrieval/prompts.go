package retrieval

const answerSystemPrompt = "You answer questions about a user's uploaded document using only the excerpts you are given."

const summaryPromptTemplate = `Please provide a comprehensive summary of the following document.

Document Name: %s
Document Content:
%s

Instructions:
- Provide a clear and structured summary covering the main topics, key points, and important information
- Organize the summary with clear sections if the document covers multiple topics
- Include important details, facts, and conclusions from the document
- Use only the content above; if it is too fragmentary to summarize, say so
- If the document is technical, include key technical details

Summary:`

const questionPromptTemplate = `Based on the following document content, please answer the question accurately and concisely.

Document Name: %s
Document Context:
%s

User Question: %s

Instructions:
- Answer based ONLY on the information provided in the document context
- Be specific and cite relevant details from the document
- If the answer is not in the document, clearly state that
- Keep your answer clear and well-structured

Answer:`
