package catalog

// attributes is the full value-attribute table. A few names repeat with
// different explanations; the analyze directive lists them all, so the
// duplicates are kept rather than deduplicated.
var attributes = []Attribute{
	{"Discovery", "Finding new things"},
	{"Accuracy", "Correctly conveying one's opinions or beliefs"},
	{"Achievement", "Accomplishing something important"},
	{"Adventure", "Having new and exciting experiences"},
	{"Charm", "Maintaining physical attractiveness"},
	{"Power", "Leading others with authority"},
	{"Influence", "Controlling others"},
	{"Autonomy", "Deciding everything in one's life by oneself"},
	{"Beauty", "Appreciating beautiful things around oneself"},
	{"Victory", "Defeating oneself or others"},
	{"Challenge", "Tackling difficult tasks or problems"},
	{"Change", "Living a life full of variety and changes"},
	{"Comfort", "Living a stress-free and comfortable life"},
	{"Commitment", "Keeping unbreakable promises"},
	{"Compassion", "Helping others with a caring heart"},
	{"Resistance", "Rebelling against societal pressure"},
	{"Helpfulness", "Being helpful to people around"},
	{"Courtesy", "Being polite and respectful to others"},
	{"Creation", "Creating new and innovative ideas"},
	{"Trust", "Being trustworthy and reliable"},
	{"Responsibility", "Fulfilling obligations towards others"},
	{"Harmony", "Living in harmony with the environment"},
	{"Excitement", "Leading a thrilling and stimulating life"},
	{"Honesty", "Living honestly without lying to anyone"},
	{"Fame", "Being recognized and acknowledged"},
	{"Family", "Creating a happy and loving family"},
	{"Fitness", "Maintaining a strong and healthy body"},
	{"Flexibility", "Easily adapting to new environments"},
	{"Forgiveness", "Living by forgiving others"},
	{"Friendship", "Making close and supportive friends"},
	{"Fun", "Enjoying life through play"},
	{"Generosity", "Sharing one's possessions with others"},
	{"Belief", "Acting according to what one believes is right"},
	{"Religion", "Respecting the will of a higher power"},
	{"Growth", "Maintaining positive change and growth"},
	{"Health", "Living healthily and feeling well"},
	{"Cooperation", "Working with others to achieve something"},
	{"Honesty", "Living without lying and being truthful"},
	{"Hope", "Living with hope for the future"},
	{"Humility", "Living with a humble attitude"},
	{"Humor", "Seeing the humorous side of life and the world"},
	{"Independence", "Living without relying on others"},
	{"Diligence", "Working hard on one's tasks"},
	{"Peace", "Maintaining inner peace"},
	{"Intimacy", "Building close relationships with a few people"},
	{"Fairness", "Treating everyone equally"},
	{"Knowledge", "Learning or creating valuable knowledge"},
	{"Leisure", "Enjoying one's time relaxing"},
	{"Being loved", "Being loved by close people"},
	{"Love", "Giving love to someone"},
	{"Mastery", "Becoming proficient in usual work or tasks"},
	{"Present", "Living focused on the present moment"},
	{"Moderation", "Seeking the right amount and avoiding excess"},
	{"Devotion", "Finding the only partner one can love"},
	{"Rebellion", "Resisting authority or rules"},
	{"Helpfulness", "Taking good care of others"},
	{"Openness", "Being open to new experiences, ideas, and choices"},
	{"Order", "Living an organized and orderly life"},
	{"Passion", "Having enthusiastic feelings for activities"},
	{"Joy", "Feeling good"},
	{"Popularity", "Being liked by many people"},
	{"Purpose", "Defining the meaning and direction of life"},
	{"Rationality", "Living by reason and logic"},
	{"Reality", "Acting realistically and practically"},
	{"Responsibility", "Fulfilling one's duties"},
	{"Risk", "Taking risks to gain challenges"},
	{"Romance", "Having an exciting and passionate love"},
	{"Security", "Gaining a sense of security"},
	{"Acceptance", "Accepting oneself and others as they are"},
	{"Self-control", "Controlling one's own actions"},
	{"Autonomy", "Living by one's own power"},
	{"Self-awareness", "Having a deep understanding of oneself"},
	{"Devotion", "Serving someone and living for them"},
	{"Sexuality", "Leading an active and satisfying sex life"},
	{"Minimalism", "Living a minimalist life with only the essentials"},
	{"Solitude", "Having time and space to be alone from others"},
	{"Spirituality", "Growing and maturing spiritually"},
	{"Stability", "Leading a consistently calm life"},
	{"Tolerance", "Respecting and accepting different existences"},
	{"Tradition", "Respecting patterns passed down from the past"},
	{"Virtue", "Living morally right"},
	{"Wealth", "Becoming rich"},
	{"Peace", "Acting for world peace"},
	{"Fulfillment", "Fully utilizing one's abilities"},
	{"Truth", "Seeking truth, philosophy, and wisdom"},
	{"Dignity", "Being a dignified existence"},
	{"Authenticity", "Being oneself without pretense"},
	{"Immersion", "Deeply focusing on what is in front of oneself"},
	{"Effort", "Working hard for a purpose"},
	{"Conviction", "Making decisions after thorough consideration"},
	{"Freedom", "Living without being bound by anything"},
	{"Expression", "Expressing oneself to the world"},
	{"Oneness", "Feeling connected as an important part of the world"},
	{"Ingenuity", "Always looking for better ways"},
	{"Professionalism", "Committing to tasks without deviating"},
	{"Flexibility", "Approaching things without being rigid"},
	{"Leisure", "Having time and mind to spare"},
	{"Overcoming", "Overcoming difficulties and growing"},
	{"Fellowship", "Cooperating with companions towards a goal"},
	{"Simplicity", "Leading a simple and uncluttered life"},
}
